package pagination

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
	"github.com/Sternrassler/rm-catalog-client/pkg/catalog/catalogtest"
)

var (
	charA = catalogtest.Character(1, "Rick Sanchez", "Alive")
	charB = catalogtest.Character(2, "Morty Smith", "Alive")
	charC = catalogtest.Character(3, "Summer Smith", "Alive")
	charD = catalogtest.Character(8, "Adjudicator Rick", "Dead")
)

func ids(items []catalog.Character) []int {
	out := make([]int, 0, len(items))
	for _, c := range items {
		out = append(out, c.ID)
	}
	return out
}

func twoPageService() *catalogtest.StaticService {
	svc := catalogtest.NewStaticService()
	svc.SetPage(catalog.StatusAll, 1, catalogtest.Envelope(3, 2, charA, charB))
	svc.SetPage(catalog.StatusAll, 2, catalogtest.Envelope(3, 2, charC))
	return svc
}

func TestNewController_Initial(t *testing.T) {
	ctrl := NewController(catalogtest.NewStaticService())

	s := ctrl.State()
	if s.Len() != 0 || s.Err != "" || s.Loading {
		t.Errorf("unexpected initial state: %+v", s)
	}
	want := Cursor{CurrentPage: 1, TotalPages: 1, Filter: catalog.StatusAll}
	if s.Cursor != want {
		t.Errorf("cursor = %+v, want %+v", s.Cursor, want)
	}
}

func TestNewController_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewController should panic with nil service")
		}
	}()
	NewController(nil)
}

func TestController_TwoPageScenario(t *testing.T) {
	svc := twoPageService()
	ctrl := NewController(svc)
	ctx := context.Background()

	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("first FetchNext failed: %v", err)
	}
	s := ctrl.State()
	if got := ids(s.Items); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("items after page 1 = %v, want [1 2]", got)
	}
	if s.Cursor.CurrentPage != 2 || s.Cursor.TotalPages != 2 {
		t.Errorf("cursor after page 1 = %+v", s.Cursor)
	}

	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("second FetchNext failed: %v", err)
	}
	s = ctrl.State()
	if got := ids(s.Items); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("items after page 2 = %v, want [1 2 3]", got)
	}
	if s.Cursor.CurrentPage != 3 {
		t.Errorf("current page = %d, want 3", s.Cursor.CurrentPage)
	}
	if s.HasMore() {
		t.Error("HasMore() = true after last page")
	}

	before := ctrl.State()
	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("third FetchNext failed: %v", err)
	}
	after := ctrl.State()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("FetchNext past the end changed state:\nbefore %+v\nafter  %+v", before, after)
	}
	if n := len(svc.Calls()); n != 2 {
		t.Errorf("service calls = %d, want 2", n)
	}
}

func TestController_FetchAll_SumsPages(t *testing.T) {
	dataset := make([]catalog.Character, 0, 47)
	for i := 1; i <= 47; i++ {
		dataset = append(dataset, catalogtest.Character(i, "c", "Alive"))
	}
	svc := catalogtest.NewStaticService()
	svc.SetPages(catalog.StatusAll, 20, dataset)

	ctrl := NewController(svc)
	if err := ctrl.FetchAll(context.Background(), 0); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	s := ctrl.State()
	if s.Len() != 47 {
		t.Fatalf("items = %d, want 47", s.Len())
	}
	for i, c := range s.Items {
		if c.ID != i+1 {
			t.Fatalf("item %d has id %d, want %d", i, c.ID, i+1)
		}
	}
	if n := len(svc.Calls()); n != 3 {
		t.Errorf("service calls = %d, want 3", n)
	}
}

func TestController_FetchAll_MaxPages(t *testing.T) {
	svc := twoPageService()
	ctrl := NewController(svc)

	if err := ctrl.FetchAll(context.Background(), 1); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if got := ctrl.State().Len(); got != 2 {
		t.Errorf("items = %d, want 2", got)
	}
}

func TestController_Refresh_ResetsToFirstPage(t *testing.T) {
	svc := twoPageService()
	ctrl := NewController(svc)
	ctx := context.Background()

	if err := ctrl.FetchAll(ctx, 0); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	s := ctrl.State()
	if got := ids(s.Items); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("items after refresh = %v, want [1 2]", got)
	}
	if s.Cursor.CurrentPage != 2 {
		t.Errorf("current page after refresh = %d, want 2", s.Cursor.CurrentPage)
	}

	calls := svc.Calls()
	if last := calls[len(calls)-1]; last.Page != 1 {
		t.Errorf("refresh requested page %d, want 1", last.Page)
	}
}

func TestController_Refresh_LoadingSnapshotIsCleared(t *testing.T) {
	svc := twoPageService()
	ctrl := NewController(svc)
	ctx := context.Background()

	if err := ctrl.FetchAll(ctx, 0); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	var loading []State
	defer ctrl.Subscribe(func(s State) {
		if s.Loading {
			loading = append(loading, s)
		}
	})()

	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(loading) != 1 {
		t.Fatalf("loading notifications = %d, want 1", len(loading))
	}
	if loading[0].Len() != 0 || loading[0].Cursor.CurrentPage != 1 {
		t.Errorf("loading snapshot during refresh = %+v", loading[0])
	}
}

func TestController_FailureThenRetry(t *testing.T) {
	svc := twoPageService()
	ctrl := NewController(svc)
	ctx := context.Background()

	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("FetchNext failed: %v", err)
	}
	before := ctrl.State()

	svc.FailNext(&catalog.NetworkError{URL: "static", Err: errors.New("connection reset")})
	err := ctrl.FetchNext(ctx, false)
	if !errors.Is(err, catalog.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}

	failed := ctrl.State()
	if failed.Err == "" {
		t.Error("Err is empty after failure")
	}
	if !reflect.DeepEqual(ids(failed.Items), ids(before.Items)) {
		t.Errorf("items changed on failure: %v -> %v", ids(before.Items), ids(failed.Items))
	}
	if failed.Cursor != before.Cursor {
		t.Errorf("cursor moved on failure: %+v -> %+v", before.Cursor, failed.Cursor)
	}
	if failed.Loading {
		t.Error("Loading still set after failure")
	}

	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	retried := ctrl.State()
	if retried.Err != "" {
		t.Errorf("Err = %q after successful retry", retried.Err)
	}
	if got := ids(retried.Items); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("items after retry = %v, want [1 2 3]", got)
	}

	calls := svc.Calls()
	if calls[1].Page != 2 || calls[2].Page != 2 {
		t.Errorf("retry did not re-request page 2: %+v", calls)
	}
}

func TestController_FirstFetchFails(t *testing.T) {
	svc := catalogtest.NewStaticService()
	svc.FailNext(&catalog.HTTPStatusError{StatusCode: 500})
	ctrl := NewController(svc)

	if err := ctrl.FetchNext(context.Background(), false); err == nil {
		t.Fatal("expected error")
	}
	s := ctrl.State()
	if s.Len() != 0 {
		t.Errorf("items = %d, want 0", s.Len())
	}
	if s.Err == "" {
		t.Error("Err is empty")
	}
	if s.Cursor.CurrentPage != 1 || s.Cursor.TotalPages != 1 {
		t.Errorf("cursor = %+v", s.Cursor)
	}
}

func TestController_RefreshFailureClearsItems(t *testing.T) {
	svc := twoPageService()
	ctrl := NewController(svc)
	ctx := context.Background()

	if err := ctrl.FetchAll(ctx, 0); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	svc.FailNext(&catalog.HTTPStatusError{StatusCode: 503})
	if err := ctrl.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}

	s := ctrl.State()
	if s.Len() != 0 {
		t.Errorf("items = %v, want none", ids(s.Items))
	}
	if s.Err == "" {
		t.Error("Err is empty")
	}
	if s.Cursor.CurrentPage != 1 {
		t.Errorf("current page = %d, want 1", s.Cursor.CurrentPage)
	}

	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := ids(ctrl.State().Items); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("items after retry = %v, want [1 2]", got)
	}
}

func TestController_FilterChangeThenRefresh(t *testing.T) {
	svc := twoPageService()
	svc.SetPage(catalog.StatusDead, 1, catalogtest.Envelope(1, 1, charD))
	ctrl := NewController(svc)
	ctx := context.Background()

	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("FetchNext failed: %v", err)
	}

	ctrl.SetStatusFilter(catalog.StatusDead)
	if n := len(svc.Calls()); n != 1 {
		t.Fatalf("SetStatusFilter issued a request (calls = %d)", n)
	}
	if ctrl.StatusFilter() != catalog.StatusDead {
		t.Errorf("StatusFilter() = %q", ctrl.StatusFilter())
	}

	if err := ctrl.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	s := ctrl.State()
	if got := ids(s.Items); !reflect.DeepEqual(got, []int{8}) {
		t.Errorf("items = %v, want [8]", got)
	}
	if s.Cursor.Filter != catalog.StatusDead || s.Cursor.CurrentPage != 2 || s.Cursor.TotalPages != 1 {
		t.Errorf("cursor = %+v", s.Cursor)
	}

	last := svc.Calls()[1]
	if last.Page != 1 || last.Filter != catalog.StatusDead {
		t.Errorf("refresh call = %+v, want page 1 status dead", last)
	}
}

func TestController_EmptyPageAdvances(t *testing.T) {
	svc := catalogtest.NewStaticService()
	svc.SetPage(catalog.StatusAll, 1, catalogtest.Envelope(1, 3, charA))
	svc.SetPage(catalog.StatusAll, 2, catalogtest.Envelope(1, 3))
	svc.SetPage(catalog.StatusAll, 3, catalogtest.Envelope(1, 3))
	ctrl := NewController(svc)

	if err := ctrl.FetchAll(context.Background(), 0); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	s := ctrl.State()
	if s.Len() != 1 {
		t.Errorf("items = %d, want 1", s.Len())
	}
	if s.Cursor.CurrentPage != 4 {
		t.Errorf("current page = %d, want 4", s.Cursor.CurrentPage)
	}
}

func TestController_ZeroPagesEndsSession(t *testing.T) {
	svc := catalogtest.NewStaticService()
	svc.SetPage(catalog.StatusAll, 1, catalogtest.Envelope(0, 0))
	ctrl := NewController(svc)
	ctx := context.Background()

	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("FetchNext failed: %v", err)
	}
	s := ctrl.State()
	if s.HasMore() {
		t.Error("HasMore() = true after zero-page envelope")
	}
	if s.Cursor.CurrentPage > s.Cursor.TotalPages+1 {
		t.Errorf("cursor past TotalPages+1: %+v", s.Cursor)
	}
	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("FetchNext failed: %v", err)
	}
	if n := len(svc.Calls()); n != 1 {
		t.Errorf("service calls = %d, want 1", n)
	}
}

func TestController_DuplicatesAreKept(t *testing.T) {
	svc := catalogtest.NewStaticService()
	svc.SetPage(catalog.StatusAll, 1, catalogtest.Envelope(3, 2, charA, charB))
	svc.SetPage(catalog.StatusAll, 2, catalogtest.Envelope(3, 2, charB))
	ctrl := NewController(svc)

	if err := ctrl.FetchAll(context.Background(), 0); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if got := ids(ctrl.State().Items); !reflect.DeepEqual(got, []int{1, 2, 2}) {
		t.Errorf("items = %v, want [1 2 2]", got)
	}
}

func TestController_Subscribe(t *testing.T) {
	svc := twoPageService()
	ctrl := NewController(svc)

	var states []State
	unsubscribe := ctrl.Subscribe(func(s State) {
		states = append(states, s)
	})

	if err := ctrl.FetchNext(context.Background(), false); err != nil {
		t.Fatalf("FetchNext failed: %v", err)
	}

	if len(states) != 2 {
		t.Fatalf("notifications = %d, want 2 (loading, done)", len(states))
	}
	if !states[0].Loading || states[0].Len() != 0 {
		t.Errorf("loading snapshot = %+v", states[0])
	}
	if states[1].Loading || states[1].Len() != 2 {
		t.Errorf("final snapshot = %+v", states[1])
	}

	unsubscribe()
	if err := ctrl.FetchNext(context.Background(), false); err != nil {
		t.Fatalf("FetchNext failed: %v", err)
	}
	if len(states) != 2 {
		t.Errorf("notified after unsubscribe: %d", len(states))
	}
}

func TestController_SnapshotIsStable(t *testing.T) {
	svc := twoPageService()
	ctrl := NewController(svc)
	ctx := context.Background()

	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("FetchNext failed: %v", err)
	}
	snapshot := ctrl.State()

	if err := ctrl.FetchNext(ctx, false); err != nil {
		t.Fatalf("FetchNext failed: %v", err)
	}
	if got := ids(snapshot.Items); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("earlier snapshot changed to %v", got)
	}
}

func TestState_Find(t *testing.T) {
	s := State{Items: []catalog.Character{charA, charB}}
	if c, ok := s.Find(2); !ok || c.Name != "Morty Smith" {
		t.Errorf("Find(2) = %+v, %v", c, ok)
	}
	if _, ok := s.Find(42); ok {
		t.Error("Find(42) found an item")
	}
}
