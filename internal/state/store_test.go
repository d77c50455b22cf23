package state

import (
	"testing"

	"ihk_prep_backend/internal/model"
)

func TestSubscribeReceivesEventsInMutationOrder(t *testing.T) {
	st := NewStore()
	ch, cancel := st.Subscribe(EventSpecializationChanged)
	defer cancel()

	st.SetSpecialization(model.SpecializationAE, true)
	st.SetSpecialization(model.SpecializationDPA, true)

	first := <-ch
	payload, ok := first.Payload.(SpecializationChangedPayload)
	if !ok {
		t.Fatalf("payload type %T", first.Payload)
	}
	if payload.SpecializationID != model.SpecializationAE {
		t.Errorf("first event = %v, want AE", payload.SpecializationID)
	}
	if !payload.UpdateCategories {
		t.Error("UpdateCategories not set")
	}

	second := <-ch
	if second.Payload.(SpecializationChangedPayload).SpecializationID != model.SpecializationDPA {
		t.Error("events out of mutation order")
	}
}

func TestCancelClosesChannel(t *testing.T) {
	st := NewStore()
	ch, cancel := st.Subscribe(EventProgressChanged)
	cancel()

	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}

	// publishing after cancel must not panic
	st.SetProgress(&model.ProgressState{})
}

func TestProgressReturnsIsolatedCopy(t *testing.T) {
	st := NewStore()
	st.SetProgress(&model.ProgressState{ModulesCompleted: []string{"a"}})

	snap := st.Progress()
	snap.ModulesCompleted[0] = "mutated"
	snap.ModulesCompleted = append(snap.ModulesCompleted, "b")

	fresh := st.Progress()
	if len(fresh.ModulesCompleted) != 1 || fresh.ModulesCompleted[0] != "a" {
		t.Errorf("store leaked its internal state: %v", fresh.ModulesCompleted)
	}
}

func TestSetProgressClonesInput(t *testing.T) {
	st := NewStore()
	input := &model.ProgressState{ModulesCompleted: []string{"a"}}
	st.SetProgress(input)
	input.ModulesCompleted[0] = "mutated"

	if got := st.Progress().ModulesCompleted[0]; got != "a" {
		t.Errorf("store aliased caller slice: %q", got)
	}
}

func TestRehydrateDoesNotPublish(t *testing.T) {
	st := NewStore()
	specCh, cancelSpec := st.Subscribe(EventSpecializationChanged)
	defer cancelSpec()
	progCh, cancelProg := st.Subscribe(EventProgressChanged)
	defer cancelProg()

	st.Rehydrate(model.SpecializationDPA, true, &model.ProgressState{ModulesCompleted: []string{"a"}})

	select {
	case ev := <-specCh:
		t.Errorf("unexpected event %v during rehydrate", ev.Kind)
	case ev := <-progCh:
		t.Errorf("unexpected event %v during rehydrate", ev.Kind)
	default:
	}

	if id, selected := st.Specialization(); id != model.SpecializationDPA || !selected {
		t.Errorf("rehydrated specialization = %v/%v", id, selected)
	}
	if got := st.Progress().ModulesCompleted; len(got) != 1 {
		t.Errorf("rehydrated progress = %v", got)
	}
}
