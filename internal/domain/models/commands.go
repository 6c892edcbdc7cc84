package models

import "strings"

// CommandType enumerates the chat commands operators can send.
type CommandType string

const (
	CommandSell     CommandType = "sell"
	CommandRestock  CommandType = "restock"
	CommandExpense  CommandType = "expense"
	CommandIncome   CommandType = "income"
	CommandStock    CommandType = "stock"
	CommandCashFlow CommandType = "cashflow"
	CommandBudget   CommandType = "budget"
	CommandUnknown  CommandType = "unknown"
)

var knownCommands = map[string]CommandType{
	string(CommandSell):     CommandSell,
	string(CommandRestock):  CommandRestock,
	string(CommandExpense):  CommandExpense,
	string(CommandIncome):   CommandIncome,
	string(CommandStock):    CommandStock,
	string(CommandCashFlow): CommandCashFlow,
	string(CommandBudget):   CommandBudget,
}

// Command is a parsed operator instruction.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text such as "/sell ab12 3".
// Only the command word is lowercased; arguments keep their case since they
// may be identifiers.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.TrimSpace(message))
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	if t, ok := knownCommands[head]; ok {
		cmd.Type = t
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
