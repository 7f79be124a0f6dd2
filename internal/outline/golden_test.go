package outline

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goliatone/go-markmap/pkg/testsupport"
)

func TestParseMatchesGolden(t *testing.T) {
	source, err := testsupport.LoadFixture(filepath.Join("testdata", "release_notes.md"))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	var expect Node
	if err := testsupport.LoadGolden(filepath.Join("testdata", "release_notes.golden.json"), &expect); err != nil {
		t.Fatalf("load golden: %v", err)
	}

	got := Parse(string(source))
	if !reflect.DeepEqual(*got, expect) {
		t.Fatalf("outline mismatch\n got: %+v\nwant: %+v", got, expect)
	}
}
