package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestScrapeErrorFormatsCause(t *testing.T) {
	base := NewScrapeError("directory parse failed", CodeScrape, nil)
	if base.Error() != "directory parse failed" {
		t.Fatalf("unexpected message: %s", base.Error())
	}

	cause := fmt.Errorf("connection reset")
	withCause := base.WithCause(cause)
	if withCause.Error() != "directory parse failed: connection reset" {
		t.Fatalf("unexpected message with cause: %s", withCause.Error())
	}
	if !errors.Is(withCause, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
}

func TestFetchErrorCarriesRequestContext(t *testing.T) {
	cause := fmt.Errorf("timeout")
	err := NewFetchError("HTTP request failed", "https://example.jp/giin.htm", 503, cause)

	if err.Code != CodeFetch || err.StatusCode != 503 {
		t.Fatalf("unexpected code/status: %s/%d", err.Code, err.StatusCode)
	}
	if err.URL != "https://example.jp/giin.htm" || err.Context["url"] != err.URL {
		t.Fatalf("expected URL in both field and context, got %+v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
}

func TestTypedConstructors(t *testing.T) {
	validation := NewValidationError("unsupported profile URL scheme", "profileUrl", "javascript:void(0)")
	if validation.Code != CodeValidation || validation.Field != "profileUrl" {
		t.Fatalf("unexpected validation error: %+v", validation)
	}

	cache := NewCacheError("write failed", "write", "shugiin_basic", nil)
	if cache.Code != CodeCache || cache.Operation != "write" || cache.Key != "shugiin_basic" {
		t.Fatalf("unexpected cache error: %+v", cache)
	}

	service := NewServiceError("no page source available", "enricher", "enrich", nil)
	if service.Code != CodeService || service.Service != "enricher" {
		t.Fatalf("unexpected service error: %+v", service)
	}
}
