package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/store"
)

func TestDecide(t *testing.T) {
	user := &goAuthClient.User{ID: "1"}
	tests := []struct {
		name string
		snap goAuthClient.Snapshot
		want Route
	}{
		{name: "loading wins", snap: goAuthClient.Snapshot{Loading: true, Token: "t", User: user}, want: RoutePending},
		{name: "authenticated", snap: goAuthClient.Snapshot{Token: "t", User: user}, want: RouteHome},
		{name: "anonymous", snap: goAuthClient.Snapshot{}, want: RouteLogin},
		{name: "token without user", snap: goAuthClient.Snapshot{Token: "t"}, want: RouteLogin},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.snap); got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestAwait(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	_ = st.Set(ctx, "token", "abc")
	_ = st.Set(ctx, "user", `{"id":"1"}`)

	m, err := goAuthClient.New().WithStore(st).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer m.Close()

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if r, err := Await(short, m); r != RoutePending || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected pending with deadline, got %s %v", r, err)
	}

	go m.Restore(ctx)
	r, err := Await(ctx, m)
	if err != nil || r != RouteHome {
		t.Fatalf("expected home, got %s %v", r, err)
	}

	m.Logout(ctx)
	if got := Decide(m.Snapshot()); got != RouteLogin {
		t.Fatalf("expected login after logout, got %s", got)
	}
}
