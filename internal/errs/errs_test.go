package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"pgregory.net/rapid"
)

var allCodes = []Code{
	InvalidArgument,
	NotFound,
	AlreadyExists,
	FailedPrecondition,
	PermissionDenied,
	Unauthenticated,
	Unavailable,
	Internal,
}

func testCodeOf_WrappedTypedError(t *rapid.T) {
	code := rapid.SampledFrom(allCodes).Draw(t, "code")
	message := rapid.StringMatching(`[a-zA-Z0-9 _:\-']{1,80}`).Draw(t, "message")
	cause := errors.New(rapid.StringMatching(`[a-z ]{1,40}`).Draw(t, "cause"))

	wrapped := fmt.Errorf("outer: %w", Wrap(code, message, cause))

	if got := CodeOf(wrapped); got != code {
		t.Fatalf("CodeOf(wrapped) mismatch: got=%q want=%q", got, code)
	}
	if got := MessageOf(wrapped); got != message {
		t.Fatalf("MessageOf(wrapped) mismatch: got=%q want=%q", got, message)
	}
	if !Is(wrapped, code) {
		t.Fatalf("Is(wrapped, %q) = false", code)
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("cause lost through Wrap")
	}
}

func TestCodeOf_WrappedTypedError(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCodeOf_WrappedTypedError)
}

func TestUntypedAndNilFallbacks(t *testing.T) {
	t.Parallel()

	untyped := errors.New("sqlite: database is locked")
	if got := CodeOf(untyped); got != Internal {
		t.Fatalf("CodeOf(untyped) = %q, want %q", got, Internal)
	}
	if got := MessageOf(untyped); got != "internal error" {
		t.Fatalf("MessageOf(untyped) = %q", got)
	}
	if got := MessageOf(nil); got != "internal error" {
		t.Fatalf("MessageOf(nil) = %q", got)
	}
	if got := MessageOf(fmt.Errorf("query: %w", &Error{Code: NotFound})); got != "internal error" {
		t.Fatalf("MessageOf(empty message) = %q", got)
	}
	if got := CodeOf(nil); got != Internal {
		t.Fatalf("CodeOf(nil) = %q", got)
	}
	if Is(nil, Internal) {
		t.Fatal("Is(nil) must be false")
	}
}

func TestHTTPStatus_Mapping(t *testing.T) {
	t.Parallel()

	cases := map[Code]int{
		InvalidArgument:    http.StatusBadRequest,
		Unauthenticated:    http.StatusUnauthorized,
		PermissionDenied:   http.StatusForbidden,
		NotFound:           http.StatusNotFound,
		AlreadyExists:      http.StatusConflict,
		FailedPrecondition: http.StatusConflict,
		Unavailable:        http.StatusServiceUnavailable,
		Internal:           http.StatusInternalServerError,
		Code("unknown"):    http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatus(code); got != want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", code, got, want)
		}
	}
}
