package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantType CommandType
		wantArgs []string
	}{
		{name: "sell with note", message: "/sell AB12 3 walk-in", wantType: CommandSell, wantArgs: []string{"AB12", "3", "walk-in"}},
		{name: "head is case insensitive", message: "  /RESTOCK ab 10 ", wantType: CommandRestock, wantArgs: []string{"ab", "10"}},
		{name: "no slash", message: "stock", wantType: CommandStock},
		{name: "cashflow", message: "/cashflow IT", wantType: CommandCashFlow, wantArgs: []string{"IT"}},
		{name: "unknown", message: "/dance now", wantType: CommandUnknown, wantArgs: []string{"now"}},
		{name: "empty", message: "   ", wantType: CommandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ParseCommand(tt.message)
			assert.Equal(t, tt.wantType, cmd.Type)
			assert.Equal(t, tt.wantArgs, cmd.Args)
			assert.Equal(t, tt.message, cmd.Raw)
		})
	}
}

func TestParseDirection(t *testing.T) {
	dir, err := ParseDirection(" Expense ")
	assert.NoError(t, err)
	assert.Equal(t, DirectionExpense, dir)
	assert.True(t, dir.Valid())

	_, err = ParseDirection("transfer")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, Direction("transfer").Valid())
}
