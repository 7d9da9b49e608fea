package scheduler_test

import (
	"fmt"

	"github.com/AdamDotNet/recflow/pkg/scheduling/scheduler"
)

func ExampleValidateCronExpression() {
	for _, expr := range []string{"@every 5m", "*/10 * * * * *", "every five minutes"} {
		fmt.Println(expr, "->", scheduler.ValidateCronExpression(expr) == nil)
	}

	// Output:
	// @every 5m -> true
	// */10 * * * * * -> true
	// every five minutes -> false
}
