package services

import (
	"context"
	"testing"

	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
	"github.com/safefloor/safefloor-backend/internal/repos"
	"github.com/safefloor/safefloor-backend/internal/types"
)

func newPolicyService(t *testing.T) PolicyService {
	t.Helper()
	db, log := newTestEnv(t)
	return NewPolicyService(db, log, repos.NewRoomPolicyRepo(db, log), nil)
}

func TestPolicyUpsertValidation(t *testing.T) {
	svc := newPolicyService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   PolicyInput
	}{
		{
			name: "empty room name",
			in: PolicyInput{
				RoomName:         "   ",
				EquipmentWeights: weights(types.WeightEntry{Item: "gloves", Spec: types.Numeric(100)}),
				EntryThreshold:   70,
			},
		},
		{
			name: "threshold above 100",
			in: PolicyInput{
				RoomName:         "clean-room",
				EquipmentWeights: weights(types.WeightEntry{Item: "gloves", Spec: types.Numeric(100)}),
				EntryThreshold:   120,
			},
		},
		{
			name: "negative threshold",
			in: PolicyInput{
				RoomName:         "clean-room",
				EquipmentWeights: weights(types.WeightEntry{Item: "gloves", Spec: types.Numeric(100)}),
				EntryThreshold:   -1,
			},
		},
		{
			name: "negative weight",
			in: PolicyInput{
				RoomName:         "clean-room",
				EquipmentWeights: weights(types.WeightEntry{Item: "gloves", Spec: types.Numeric(-5)}),
				EntryThreshold:   70,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Upsert(ctx, tc.in); !pkgerrors.IsValidation(err) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestPolicyUpsertIsFullReplace(t *testing.T) {
	svc := newPolicyService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, PolicyInput{
		RoomName: "Production Floor",
		EquipmentWeights: weights(
			types.WeightEntry{Item: "mask", Spec: types.Numeric(35)},
			types.WeightEntry{Item: "gloves", Spec: types.Numeric(30)},
			types.WeightEntry{Item: "hairnet", Spec: types.Numeric(35)},
		),
		EntryThreshold: 80,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if first.RoomName != "production-floor" {
		t.Fatalf("room name not normalized: %q", first.RoomName)
	}

	second, err := svc.Upsert(ctx, PolicyInput{
		RoomName:         "production-floor",
		EquipmentWeights: weights(types.WeightEntry{Item: "boots", Spec: types.Required()}),
		EntryThreshold:   60,
	})
	if err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("replace changed identity: want=%d got=%d", first.ID, second.ID)
	}

	got, err := svc.GetByRoom(ctx, "production-floor")
	if err != nil {
		t.Fatalf("GetByRoom: %v", err)
	}
	if got.EquipmentWeights.Len() != 1 {
		t.Fatalf("old weights survived replace: %d items", got.EquipmentWeights.Len())
	}
	if _, ok := got.EquipmentWeights.Get("mask"); ok {
		t.Fatalf("mask should be gone after full replace")
	}
	if got.EntryThreshold != 60 {
		t.Fatalf("threshold: want=60 got=%v", got.EntryThreshold)
	}
}

func TestPolicyGetByRoomNormalizesName(t *testing.T) {
	svc := newPolicyService(t)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, PolicyInput{
		RoomName:         "assembly-line",
		EquipmentWeights: weights(types.WeightEntry{Item: "gloves", Spec: types.Numeric(100)}),
		EntryThreshold:   70,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := svc.GetByRoom(ctx, "  Assembly Line  ")
	if err != nil {
		t.Fatalf("GetByRoom with display name: %v", err)
	}
	if got.RoomName != "assembly-line" {
		t.Fatalf("room name: want=assembly-line got=%q", got.RoomName)
	}
}

func TestPolicyDeactivateHidesFromDefaultListing(t *testing.T) {
	svc := newPolicyService(t)
	ctx := context.Background()

	for _, room := range []string{"assembly-line", "packaging-area"} {
		if _, err := svc.Upsert(ctx, PolicyInput{
			RoomName:         room,
			EquipmentWeights: weights(types.WeightEntry{Item: "gloves", Spec: types.Numeric(100)}),
			EntryThreshold:   60,
		}); err != nil {
			t.Fatalf("Upsert %s: %v", room, err)
		}
	}

	if err := svc.Deactivate(ctx, "assembly-line"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	active, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("List active: %v", err)
	}
	if len(active) != 1 || active[0].RoomName != "packaging-area" {
		t.Fatalf("active listing wrong: %+v", active)
	}

	all, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("full listing: want=2 got=%d", len(all))
	}

	// the policy itself survives so historical entries stay resolvable
	got, err := svc.GetByRoom(ctx, "assembly-line")
	if err != nil {
		t.Fatalf("GetByRoom after deactivate: %v", err)
	}
	if got.IsActive {
		t.Fatalf("policy should be inactive")
	}
}

func TestPolicyDeactivateUnknownRoom(t *testing.T) {
	svc := newPolicyService(t)
	if err := svc.Deactivate(context.Background(), "no-such-room"); !pkgerrors.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestPolicyListOrdersByRoomName(t *testing.T) {
	svc := newPolicyService(t)
	ctx := context.Background()

	for _, room := range []string{"packaging-area", "assembly-line", "production-floor"} {
		if _, err := svc.Upsert(ctx, PolicyInput{
			RoomName:         room,
			EquipmentWeights: weights(types.WeightEntry{Item: "gloves", Spec: types.Numeric(100)}),
			EntryThreshold:   60,
		}); err != nil {
			t.Fatalf("Upsert %s: %v", room, err)
		}
	}

	got, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"assembly-line", "packaging-area", "production-floor"}
	if len(got) != len(want) {
		t.Fatalf("listing size: want=%d got=%d", len(want), len(got))
	}
	for i, room := range want {
		if got[i].RoomName != room {
			t.Fatalf("listing[%d]: want=%q got=%q", i, room, got[i].RoomName)
		}
	}
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	svc := newPolicyService(t)
	ctx := context.Background()

	created, err := svc.SeedDefaults(ctx, nil)
	if err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	if created != 3 {
		t.Fatalf("first seed: want=3 got=%d", created)
	}

	// admin tunes a room, reseeding must not clobber it
	if _, err := svc.Upsert(ctx, PolicyInput{
		RoomName:         "packaging-area",
		EquipmentWeights: weights(types.WeightEntry{Item: "gloves", Spec: types.Required()}),
		EntryThreshold:   90,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	created, err = svc.SeedDefaults(ctx, nil)
	if err != nil {
		t.Fatalf("second SeedDefaults: %v", err)
	}
	if created != 0 {
		t.Fatalf("second seed: want=0 got=%d", created)
	}

	got, err := svc.GetByRoom(ctx, "packaging-area")
	if err != nil {
		t.Fatalf("GetByRoom: %v", err)
	}
	if got.EntryThreshold != 90 {
		t.Fatalf("reseed clobbered tuned policy: threshold=%v", got.EntryThreshold)
	}
}

func TestTestObservationDryRun(t *testing.T) {
	svc := newPolicyService(t)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, PolicyInput{
		RoomName: "production-floor",
		EquipmentWeights: weights(
			types.WeightEntry{Item: "mask", Spec: types.Numeric(35)},
			types.WeightEntry{Item: "gloves", Spec: types.Numeric(30)},
			types.WeightEntry{Item: "hairnet", Spec: types.Numeric(35)},
		),
		EntryThreshold: 80,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	result, policy, err := svc.TestObservation(ctx, "production-floor", types.EquipmentMap{
		"mask": true, "gloves": true, "hairnet": false,
	})
	if err != nil {
		t.Fatalf("TestObservation: %v", err)
	}
	if policy.RoomName != "production-floor" {
		t.Fatalf("policy room: %q", policy.RoomName)
	}
	if result.Score != 65.0 {
		t.Fatalf("score: want=65.0 got=%v", result.Score)
	}
	if result.Approved {
		t.Fatalf("65.0 below threshold 80 must not approve")
	}
	if len(result.MissingEquipment) != 1 || result.MissingEquipment[0] != "hairnet" {
		t.Fatalf("missing equipment: %v", result.MissingEquipment)
	}
}

func TestTestObservationUnknownRoom(t *testing.T) {
	svc := newPolicyService(t)
	if _, _, err := svc.TestObservation(context.Background(), "no-such-room", types.EquipmentMap{}); !pkgerrors.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}
