package tools

import (
	"context"
	"strconv"

	"github.com/odalmau/webmcp/internal/rpc"
)

var calculateSchema = Schema{Fields: []Field{
	{Name: "operation", Type: TypeString, Required: true,
		Enum:        []string{"add", "subtract", "multiply", "divide"},
		Description: "Arithmetic operation to perform"},
	{Name: "a", Type: TypeNumber, Required: true, Description: "Left operand"},
	{Name: "b", Type: TypeNumber, Required: true, Description: "Right operand"},
}}

func (r *Registry) calculate(_ context.Context, params map[string]any) ([]rpc.Content, error) {
	op := params["operation"].(string)
	a, _ := asNumber(params["a"])
	b, _ := asNumber(params["b"])

	var v float64
	switch op {
	case "add":
		v = a + b
	case "subtract":
		v = a - b
	case "multiply":
		v = a * b
	case "divide":
		if b == 0 {
			return nil, rpc.Errorf(rpc.KindDivisionByZero, "cannot divide %s by zero", formatNumber(a))
		}
		v = a / b
	}

	return []rpc.Content{rpc.Text(formatNumber(v))}, nil
}

// formatNumber renders the shortest decimal string that round-trips the
// double, so 15/3 is "5" and 10/3 is "3.3333333333333335".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
