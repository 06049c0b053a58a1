package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stRequested State = "T2038 Requested"
	stReceived  State = "T2038 received, Need First Contact"
	stDocs      State = "T2038 received, doc collection"
	stComplete  State = "Complete"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"status string", stRequested, true},
		{"completion", stComplete, true},
		{"blank", State("   "), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.IsValid())
		})
	}
}

func TestTrigger_String(t *testing.T) {
	assert.Equal(t, "AUTO_ADVANCE", TriggerAutoAdvance.String())
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(stRequested)
	require.NotNil(t, config)

	// Configuring the same state again returns the same configuration
	assert.Same(t, config, builder.Configure(stRequested))
}

func TestBuilder_PanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	assert.Panics(t, func() { builder.Configure(State("")) })
	assert.Panics(t, func() { builder.Build(State(" ")) })
	assert.Panics(t, func() { builder.Configure(stRequested).Permit(TriggerAdvance, State("")) })
}

func TestStateConfiguration_Permit(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stRequested).Permit(TriggerAdvance, stReceived)

	machine := builder.Build(stRequested)

	assert.True(t, machine.CanFire(TriggerAdvance))
	next, err := machine.Evaluate(context.Background(), TriggerAdvance)
	require.NoError(t, err)
	assert.Equal(t, stReceived, next)
	assert.Equal(t, stRequested, machine.State())
}

func TestStateConfiguration_PermitIf_Conditions(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stRequested).
		PermitIf(TriggerAutoAdvance, stReceived, RequireConditions([]string{"t2038_received"}))

	t.Run("guard fails without conditions", func(t *testing.T) {
		machine := builder.Build(stRequested)
		_, err := machine.Evaluate(context.Background(), TriggerAutoAdvance)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGuardFailed)
		assert.Equal(t, stRequested, machine.State())
	})

	t.Run("guard passes with conditions", func(t *testing.T) {
		machine := builder.Build(stRequested)
		ctx := WithConditions(context.Background(), NewConditionSet("t2038_received", "unrelated"))
		next, err := machine.Evaluate(ctx, TriggerAutoAdvance)
		require.NoError(t, err)
		assert.Equal(t, stReceived, next)
	})
}

func TestRequireConditions_EmptyNeverPasses(t *testing.T) {
	guard := RequireConditions(nil)
	ctx := WithConditions(context.Background(), NewConditionSet("anything"))
	assert.False(t, guard(ctx))
}

func TestStateConfiguration_PermitIf_MultipleTransitions(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stRequested).
		PermitIf(TriggerAdvance, stDocs, func(ctx context.Context) bool {
			return ConditionsFrom(ctx).Has("fast_track")
		}).
		Permit(TriggerAdvance, stReceived)

	machine1 := builder.Build(stRequested)
	ctx := WithConditions(context.Background(), NewConditionSet("fast_track"))
	next, err := machine1.Evaluate(ctx, TriggerAdvance)
	require.NoError(t, err)
	assert.Equal(t, stDocs, next)

	machine2 := builder.Build(stRequested)
	next, err = machine2.Evaluate(context.Background(), TriggerAdvance)
	require.NoError(t, err)
	assert.Equal(t, stReceived, next)
}

func TestStateMachine_Evaluate_DoesNotTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stRequested).Permit(TriggerAdvance, stReceived)

	machine := builder.Build(stRequested)
	next, err := machine.Evaluate(context.Background(), TriggerAdvance)
	require.NoError(t, err)
	assert.Equal(t, stReceived, next)
	assert.Equal(t, stRequested, machine.State())
}

func TestStateMachine_Evaluate_InvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stRequested).Permit(TriggerAdvance, stReceived)

	machine := builder.Build(stRequested)
	_, err := machine.Evaluate(context.Background(), TriggerAutoAdvance)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	unconfigured := builder.Build(stComplete)
	_, err = unconfigured.Evaluate(context.Background(), TriggerAdvance)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStateMachine_CanTransitionTo(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stRequested).Permit(TriggerAdvance, stReceived)
	builder.Configure(stReceived).Permit(TriggerAdvance, stDocs).AllowSkip()

	requested := builder.Build(stRequested)
	assert.True(t, requested.CanTransitionTo(stReceived))
	assert.False(t, requested.CanTransitionTo(stDocs))

	received := builder.Build(stReceived)
	assert.True(t, received.CanTransitionTo(stComplete), "skippable state accepts any target")
	assert.False(t, received.CanTransitionTo(State("")))

	assert.False(t, builder.Build(stComplete).CanTransitionTo(stRequested))
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stRequested).
		Permit(TriggerAdvance, stReceived).
		PermitIf(TriggerAutoAdvance, stReceived, RequireConditions([]string{"x"}))

	triggers := builder.Build(stRequested).PermittedTriggers()
	assert.Equal(t, []Trigger{TriggerAdvance, TriggerAutoAdvance}, triggers)

	assert.Empty(t, builder.Build(stComplete).PermittedTriggers())
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stRequested).Permit(TriggerAdvance, stReceived)

	received := builder.Build(stReceived)
	assert.False(t, received.CanFire(TriggerAdvance))

	// Later configuration does not leak into machines already built
	builder.Configure(stReceived).Permit(TriggerAdvance, stDocs)
	assert.False(t, received.CanFire(TriggerAdvance))
	assert.True(t, builder.Build(stReceived).CanFire(TriggerAdvance))
}

func TestCompiledKaiserChain_WalksToCompletion(t *testing.T) {
	def := KaiserDefinition()
	builder := def.Compile()
	machine := builder.Build(State(def.Steps[0].Status))

	for i := 0; i < len(def.Steps)-1; i++ {
		next, err := machine.Evaluate(context.Background(), TriggerAdvance)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, State(def.Steps[i+1].Status), next)
		machine = builder.Build(next)
	}

	assert.True(t, def.IsCompletion(machine.State().String()))
	assert.Empty(t, machine.PermittedTriggers())
}
