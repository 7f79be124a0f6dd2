package generatecmd

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/generator"
	"github.com/goliatone/go-markmap/internal/storage"
	"github.com/goliatone/go-markmap/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

var _ command.Commander[GenerateCommand] = (*GenerateHandler)(nil)

func newHandler(store interfaces.ArtifactStore) *GenerateHandler {
	service := generator.NewService(generator.Config{MaxMarkdownSize: 64}, generator.Dependencies{Store: store})
	return NewGenerateHandler(service, nil)
}

func TestGenerateStoresAllFormats(t *testing.T) {
	store := storage.NewMemoryStore()
	h := newHandler(store)

	result, err := h.Generate(context.Background(), GenerateCommand{Markdown: "# Root\n## Leaf", Source: SourceCLI})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Set.Title != "Root" || len(result.Succeeded()) != 3 {
		t.Fatalf("unexpected result %+v", result.Set)
	}
	for _, kind := range interfaces.ArtifactKinds() {
		if !store.Exists(context.Background(), result.Set.ID, kind) {
			t.Fatalf("expected %s to be stored", kind)
		}
	}
}

func TestGenerateKeepsDomainCodes(t *testing.T) {
	h := newHandler(storage.NewMemoryStore())

	cases := []struct {
		name string
		msg  GenerateCommand
		code string
	}{
		{"blank", GenerateCommand{Markdown: "   "}, domain.CodeInvalidInput},
		{"too large", GenerateCommand{Markdown: strings.Repeat("#", 65)}, domain.CodeInputTooLarge},
		{"unknown source", GenerateCommand{Markdown: "# A", Source: "ftp"}, domain.CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Generate(context.Background(), tc.msg)
			if domain.Code(err) != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestExecuteDiscardsResult(t *testing.T) {
	h := newHandler(storage.NewMemoryStore())
	if err := h.Execute(context.Background(), GenerateCommand{Markdown: "# A"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestDisabledServiceFails(t *testing.T) {
	h := NewGenerateHandler(generator.NewDisabledService(), nil)
	if _, err := h.Generate(context.Background(), GenerateCommand{Markdown: "# A"}); err == nil {
		t.Fatalf("expected disabled service error")
	}
}

func TestCLIOptions(t *testing.T) {
	opts := newHandler(storage.NewMemoryStore()).CLIOptions()
	if strings.Join(opts.Path, " ") != "artifacts generate" {
		t.Fatalf("unexpected cli path %v", opts.Path)
	}
}
