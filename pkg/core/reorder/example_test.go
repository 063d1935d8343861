package reorder_test

import (
	"fmt"

	"github.com/matzehuels/chartpad/pkg/core/reorder"
)

func ExampleMove() {
	// Columns: dropping COGS onto Revenue takes Revenue's slot.
	cols := []string{"Revenue", "COGS", "R&D"}
	fmt.Println(reorder.Move(cols, "COGS", "Revenue"))
	// Output:
	// [COGS Revenue R&D]
}

func ExampleMoveRelative() {
	// Rows: the lower half of the last row is the only way to reach the end.
	rows := []string{"2019", "2020", "2021"}
	pos := reorder.PositionAt(58, 40, 20)
	out, changed := reorder.MoveRelative(rows, "2019", "2021", pos)
	fmt.Println(pos, out, changed)
	// Output:
	// below [2020 2021 2019] true
}
