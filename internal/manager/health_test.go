package manager

import (
	"context"
	"testing"
)

func TestModelHealth(t *testing.T) {
	h := newHarness(t, Config{MaxLoadedModels: 3})
	h.add(t, "good", stubSpec{}, false)
	h.add(t, "sick", stubSpec{genErr: errBoom}, false)
	ctx := context.Background()

	if got := h.m.GetModelHealth(ctx, "good"); got.Status != string(NotLoaded) {
		t.Fatalf("unloaded health = %+v", got)
	}
	for _, n := range []string{"good", "sick"} {
		if _, err := h.m.LoadModel(ctx, n, ""); err != nil {
			t.Fatalf("load %s: %v", n, err)
		}
	}
	usage := h.instance(t, "good").UsageCount
	all := h.m.CheckAllHealth(ctx)
	if len(all) != 2 {
		t.Fatalf("health entries = %d", len(all))
	}
	if all[0].Name != "good" || all[0].Status != string(Healthy) {
		t.Fatalf("good = %+v", all[0])
	}
	if all[1].Name != "sick" || all[1].Status != string(Unhealthy) || all[1].Error == "" {
		t.Fatalf("sick = %+v", all[1])
	}
	if h.instance(t, "good").UsageCount != usage {
		t.Fatalf("health probe changed usage count")
	}
}
