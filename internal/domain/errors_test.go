package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestTaxonomyCodesAndCategories(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		code     string
		category goerrors.Category
	}{
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, goerrors.CategoryValidation},
		{"too large", InputTooLarge(10, 5), CodeInputTooLarge, goerrors.CategoryBadInput},
		{"credential", InvalidCredential(), CodeInvalidCredential, goerrors.CategoryAuth},
		{"rate limit", RateLimitExceeded(3), CodeRateLimitExceeded, goerrors.CategoryRateLimit},
		{"invalid id", InvalidID("../x"), CodeInvalidID, goerrors.CategoryBadInput},
		{"not found", NotFound("artifact"), CodeNotFound, goerrors.CategoryNotFound},
		{"storage", StorageWriteFailed("preview", errors.New("disk full")), CodeStorageWriteFailed, goerrors.CategoryInternal},
		{"renderer", ExternalRendererFailed(errors.New("timeout")), CodeExternalRendererFailed, goerrors.CategoryExternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Code(tc.err); got != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, got)
			}
			if !IsCategory(tc.err, tc.category) {
				t.Fatalf("expected category %v for %v", tc.category, tc.err)
			}
		})
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", InvalidID("a/b"))
	if Code(err) != CodeInvalidID {
		t.Fatalf("expected wrapped code, got %s", Code(err))
	}
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected sentinel to be reachable")
	}
}

func TestStorageWriteFailedKeepsCauseButHidesIt(t *testing.T) {
	cause := errors.New("open /var/data/output/x.svg: permission denied")
	err := StorageWriteFailed("preview", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if msg := Message(err); strings.Contains(msg, "/var/data") {
		t.Fatalf("expected message without filesystem path, got %q", msg)
	}
}

func TestUnclassifiedErrorsAreRedacted(t *testing.T) {
	err := errors.New("secret detail")
	if Code(err) != CodeInternal {
		t.Fatalf("expected internal code, got %s", Code(err))
	}
	if Message(err) != "internal server error" {
		t.Fatalf("expected redacted message, got %q", Message(err))
	}
}

func TestGenerationRequestCheck(t *testing.T) {
	cases := []struct {
		name string
		req  GenerationRequest
		max  int
		code string
	}{
		{"ok", GenerationRequest{Markdown: "# A"}, 100, ""},
		{"empty", GenerationRequest{Markdown: "  \n"}, 100, CodeInvalidInput},
		{"too large", GenerationRequest{Markdown: strings.Repeat("a", 11)}, 10, CodeInputTooLarge},
		{"bad utf8", GenerationRequest{Markdown: "# \xff\xfe"}, 100, CodeInvalidInput},
		{"long title", GenerationRequest{Markdown: "# A", Title: strings.Repeat("t", MaxTitleLength+1)}, 1000, CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Check(tc.max)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if Code(err) != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestOversizeCheckedBeforeEncoding(t *testing.T) {
	req := GenerationRequest{Markdown: strings.Repeat("\xff", 20)}
	if Code(req.Check(10)) != CodeInputTooLarge {
		t.Fatalf("expected size check to win over encoding check")
	}
}
