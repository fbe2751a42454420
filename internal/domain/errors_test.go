package domain

import (
	"errors"
	"testing"
)

func TestKindOf_PrefersExplicitKind(t *testing.T) {
	err := WithKind(KindRateLimited, errors.New("slow down"))
	if got := KindOf(err); got != KindRateLimited {
		t.Errorf("want KindRateLimited, got %s", got)
	}
}

func TestKindOf_FallsBackToSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{ErrNotFound, KindClientError},
		{ErrValidation, KindClientError},
		{ErrUnauthorized, KindAuthError},
		{ErrForbidden, KindAuthError},
		{ErrCancelled, KindCancelled},
		{ErrTimeout, KindFetchTimeout},
		{errors.New("unmapped"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestWithKind_NilErrorStaysNil(t *testing.T) {
	if WithKind(KindInternal, nil) != nil {
		t.Error("WithKind(kind, nil) should return nil")
	}
}

func TestKindError_UnwrapPreservesSentinel(t *testing.T) {
	err := WithKind(KindClientError, ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to see through KindError to the wrapped sentinel")
	}
}
