package columnar

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hedgineer/secmaster/internal/factmodel"
)

func TestInferColumnTypeHomogeneous(t *testing.T) {
	values := []factmodel.Value{factmodel.NewInt(1), factmodel.Null, factmodel.NewInt(400)}

	dt, err := InferColumnType("market_cap", values)
	if err != nil {
		t.Fatalf("InferColumnType: %v", err)
	}
	if dt != arrow.PrimitiveTypes.Int64 {
		t.Errorf("dt = %v, want int64", dt)
	}
}

func TestInferColumnTypeEmptyColumn(t *testing.T) {
	values := []factmodel.Value{factmodel.Null, factmodel.Null}

	_, err := InferColumnType("market_cap", values)
	if _, ok := err.(*factmodel.EmptyColumnTypeError); !ok {
		t.Fatalf("err = %v, want *EmptyColumnTypeError", err)
	}
}

func TestInferColumnTypeHeterogeneous(t *testing.T) {
	values := []factmodel.Value{factmodel.NewInt(1), factmodel.NewString("oops")}

	_, err := InferColumnType("market_cap", values)
	if _, ok := err.(*factmodel.HeterogeneousColumnTypeError); !ok {
		t.Fatalf("err = %v, want *HeterogeneousColumnTypeError", err)
	}
}

func TestInferSchemaS1(t *testing.T) {
	sm := factmodel.NewBundle(factmodel.Header{"subject_id", "effective_start_date", "effective_end_date", "ticker"})
	sm.Rows = []factmodel.Row{
		{factmodel.NewInt(1), factmodel.NewDate(mustDate("01/01/24")), factmodel.Null, factmodel.NewString("GRPH")},
	}

	schema, err := InferSchema(sm)
	if err != nil {
		t.Fatalf("InferSchema: %v", err)
	}
	if schema.NumFields() != 4 {
		t.Fatalf("NumFields = %d, want 4", schema.NumFields())
	}
	tickerField, ok := schema.FieldsByName("ticker")
	if !ok || len(tickerField) != 1 || tickerField[0].Type != arrow.BinaryTypes.String {
		t.Errorf("ticker field = %v, want string type", tickerField)
	}
}

func mustDate(s string) time.Time {
	d, err := factmodel.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
