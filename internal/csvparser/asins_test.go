package csvparser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseAsins(t *testing.T) {
	in := "\ufeffSKU, asin ,Note\nmug-1,b08x,\nmug-2, B09Y ,gift\nmug-3,,blank\nmug-4,B08X,dup\nshort\n"

	asins, err := ParseAsins(strings.NewReader(in), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(asins) != 2 || asins[0] != "B08X" || asins[1] != "B09Y" {
		t.Fatalf("unexpected asins %v", asins)
	}
}

func TestParseAsinsMaxRows(t *testing.T) {
	asins, err := ParseAsins(strings.NewReader("ASIN\nA1\nA2\n"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(asins) != 2 {
		t.Fatalf("expected 2 asins, got %v", asins)
	}

	asins, err = ParseAsins(strings.NewReader("ASIN\nA1\nA2\nA3\n"), 2)
	if !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
	if asins != nil {
		t.Fatalf("expected nothing imported, got %v", asins)
	}
}

func TestParseAsinsRejectsFileOverDefaultLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("ASIN\n")
	for i := 0; i < 10001; i++ {
		fmt.Fprintf(&b, "B%09d\n", i)
	}

	if _, err := ParseAsins(strings.NewReader(b.String()), 0); !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
}

func TestParseAsinsErrors(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"no column": "sku,title\na,b\n",
		"no rows":   "asin\n\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseAsins(strings.NewReader(in), 0); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
