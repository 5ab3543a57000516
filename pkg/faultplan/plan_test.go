package faultplan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/fault-recommender/pkg/faultplan"
)

func validTarget() faultplan.Target {
	return faultplan.Target{Service: "checkout", APIPath: "/v1/pay", ImpactPct: 50}
}

func TestNewDelayPlan(t *testing.T) {
	p, err := faultplan.New(faultplan.Plan{
		Target:     validTarget(),
		Kind:       faultplan.Delay,
		DelayMS:    200,
		DurationMS: 1000,
	})
	require.NoError(t, err)
	require.Equal(t, faultplan.Delay, p.Kind)
}

func TestNewAbortPlan(t *testing.T) {
	p, err := faultplan.New(faultplan.Plan{
		Target:      validTarget(),
		Kind:        faultplan.Abort,
		AbortStatus: 503,
	})
	require.NoError(t, err)
	require.Equal(t, 503, p.AbortStatus)
}

func TestNewRejectsEmptyService(t *testing.T) {
	_, err := faultplan.New(faultplan.Plan{
		Target: faultplan.Target{Service: "", APIPath: "/x", ImpactPct: 10},
		Kind:   faultplan.Abort, AbortStatus: 500,
	})
	require.Error(t, err)
	var ve *faultplan.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "service", ve.Field)
}

func TestNewRejectsImpactOutOfRange(t *testing.T) {
	tgt := validTarget()
	tgt.ImpactPct = 150
	_, err := faultplan.New(faultplan.Plan{Target: tgt, Kind: faultplan.Abort, AbortStatus: 500})
	require.Error(t, err)
}

func TestNewDelayRequiresPositiveDelay(t *testing.T) {
	_, err := faultplan.New(faultplan.Plan{Target: validTarget(), Kind: faultplan.Delay, DelayMS: 0})
	require.Error(t, err)
}

func TestNewAbortRequiresStatusInRange(t *testing.T) {
	_, err := faultplan.New(faultplan.Plan{Target: validTarget(), Kind: faultplan.Abort, AbortStatus: 200})
	require.Error(t, err)
}

func TestNewErrorInjectionStatusOptional(t *testing.T) {
	p, err := faultplan.New(faultplan.Plan{Target: validTarget(), Kind: faultplan.ErrorInjection})
	require.NoError(t, err)
	require.Equal(t, 0, p.ErrorCode)
}

func TestNewErrorInjectionRejectsBadCode(t *testing.T) {
	_, err := faultplan.New(faultplan.Plan{Target: validTarget(), Kind: faultplan.ErrorInjection, ErrorCode: 42})
	require.Error(t, err)
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := faultplan.New(faultplan.Plan{Target: validTarget(), Kind: "bogus"})
	require.Error(t, err)
}

func TestNewRejectsDelayNotLessThanDuration(t *testing.T) {
	_, err := faultplan.New(faultplan.Plan{
		Target: validTarget(), Kind: faultplan.Delay,
		DelayMS: 1000, DurationMS: 1000,
	})
	require.Error(t, err)
}
