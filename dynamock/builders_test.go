package dynamock

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynarec"
)

func TestNewRecord(t *testing.T) {
	table := dynarec.NewTable("movies")

	t.Run("defaults match create", func(t *testing.T) {
		item := NewRecord(table, "Heat").Item()

		want, err := table.MarshalItem(dynarec.CreateRequest{Key: "Heat"})
		if err != nil {
			t.Fatalf("MarshalItem failed: %v", err)
		}

		got, err := dynarec.UnmarshalRecord(item)
		if err != nil {
			t.Fatalf("UnmarshalRecord failed: %v", err)
		}
		expected, _ := dynarec.UnmarshalRecord(want)
		if len(got) != len(expected) {
			t.Errorf("expected %v, got %v", expected, got)
		}
		if got.String("year") != "0" {
			t.Errorf("expected default year 0, got %q", got.String("year"))
		}
	})

	t.Run("functional options", func(t *testing.T) {
		item := NewRecord(table, "Heat",
			WithYear("1995"),
			WithActors("Pacino"),
			WithRating("4.8"),
			WithPlot("A heist"),
			WithAttribute("genre", &types.AttributeValueMemberS{Value: "crime"}),
		).Item()

		rec, err := dynarec.UnmarshalRecord(item)
		if err != nil {
			t.Fatalf("UnmarshalRecord failed: %v", err)
		}
		if rec.String("year") != "1995" || rec.String("genre") != "crime" {
			t.Errorf("unexpected record %v", rec)
		}
		if v, _ := rec.Lookup("info", "plot"); v != "A heist" {
			t.Errorf("expected plot, got %v", v)
		}
		if v, _ := rec.Lookup("info", "rating"); v == nil {
			t.Error("expected rating")
		}
	})

	t.Run("without actors", func(t *testing.T) {
		item := NewRecord(table, "Heat", WithoutActors()).Item()
		info := item["info"].(*types.AttributeValueMemberM).Value
		if _, ok := info["actors"]; ok {
			t.Error("expected actors to be absent")
		}
	})

	t.Run("without info", func(t *testing.T) {
		item := NewRecord(table, "Heat", WithoutInfo()).Item()
		if _, ok := item["info"]; ok {
			t.Error("expected info to be absent")
		}
	})

	t.Run("items are independent", func(t *testing.T) {
		b := NewRecord(table, "Heat", WithActors("Pacino"))
		first := b.Item()
		first["info"].(*types.AttributeValueMemberM).Value["actors"] = &types.AttributeValueMemberS{Value: "changed"}

		second := b.Item()
		if got := second["info"].(*types.AttributeValueMemberM).Value["actors"].(*types.AttributeValueMemberS).Value; got != "Pacino" {
			t.Errorf("expected builder state to be unaffected, got %s", got)
		}
	})
}
