package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licensegate/licensegate/internal/domain/license"
)

func machine(id string) license.MachineInfo {
	return license.MachineInfo{MachineID: id, Hostname: id + ".local", IPAddress: "10.0.0.1"}
}

func TestActivationLedger_SingleSlot(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	p := f.createProduct(t, "single-slot")
	l := f.createLicense(t, p.ID(), "LG-ONE0-SLOT-0000-0001", 1, nil)

	a, created, err := f.ledger.Activate(ctx, l.ID(), machine("m1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "m1", a.MachineID())
	assert.Equal(t, 1, f.counter(t, l.ID()))

	t.Run("same machine is idempotent", func(t *testing.T) {
		again, created, err := f.ledger.Activate(ctx, l.ID(), machine("m1"))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, a.ID(), again.ID())
		assert.Equal(t, 1, f.counter(t, l.ID()))
	})

	t.Run("second machine is refused", func(t *testing.T) {
		_, _, err := f.ledger.Activate(ctx, l.ID(), machine("m2"))
		require.Error(t, err)
		assert.ErrorIs(t, err, license.ErrSlotsExhausted)

		var exhausted *license.SlotsExhaustedError
		require.True(t, errors.As(err, &exhausted))
		assert.Equal(t, 1, exhausted.Activations)
		assert.Equal(t, 1, exhausted.MaxActivations)
		assert.Equal(t, 1, f.counter(t, l.ID()))
	})

	t.Run("released slot is reusable", func(t *testing.T) {
		released, err := f.ledger.Deactivate(ctx, l.ID(), "m1")
		require.NoError(t, err)
		assert.True(t, released)
		assert.Equal(t, 0, f.counter(t, l.ID()))

		_, created, err := f.ledger.Activate(ctx, l.ID(), machine("m2"))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 1, f.counter(t, l.ID()))
	})

	t.Run("machine returning after release reuses its row", func(t *testing.T) {
		_, err := f.ledger.Deactivate(ctx, l.ID(), "m2")
		require.NoError(t, err)

		back, created, err := f.ledger.Activate(ctx, l.ID(), machine("m1"))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, a.ID(), back.ID())
		assert.True(t, back.IsActive())
		assert.Nil(t, back.DeactivatedAt())
	})
}

func TestActivationLedger_Deactivate(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	p := f.createProduct(t, "deactivate")
	l := f.createLicense(t, p.ID(), "LG-DEAC-TIVA-TE00-0001", 3, nil)

	t.Run("unknown machine is a no-op", func(t *testing.T) {
		released, err := f.ledger.Deactivate(ctx, l.ID(), "ghost")
		require.NoError(t, err)
		assert.False(t, released)
		assert.Equal(t, 0, f.counter(t, l.ID()))
	})

	t.Run("double release decrements once", func(t *testing.T) {
		_, _, err := f.ledger.Activate(ctx, l.ID(), machine("m1"))
		require.NoError(t, err)

		released, err := f.ledger.Deactivate(ctx, l.ID(), "m1")
		require.NoError(t, err)
		assert.True(t, released)

		released, err = f.ledger.Deactivate(ctx, l.ID(), "m1")
		require.NoError(t, err)
		assert.False(t, released)
		assert.Equal(t, 0, f.counter(t, l.ID()))
	})

	t.Run("unknown license", func(t *testing.T) {
		_, err := f.ledger.Deactivate(ctx, 9999, "m1")
		assert.ErrorIs(t, err, license.ErrLicenseNotFound)

		_, _, err = f.ledger.Activate(ctx, 9999, machine("m1"))
		assert.ErrorIs(t, err, license.ErrLicenseNotFound)
	})

	t.Run("machine id required", func(t *testing.T) {
		_, _, err := f.ledger.Activate(ctx, l.ID(), license.MachineInfo{})
		assert.ErrorIs(t, err, license.ErrMachineIDRequired)
	})
}

func TestActivationLedger_ListActive(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	p := f.createProduct(t, "list-active")
	l := f.createLicense(t, p.ID(), "LG-LIST-ACTI-VE00-0001", 3, nil)

	for _, id := range []string{"a", "b", "c"} {
		_, _, err := f.ledger.Activate(ctx, l.ID(), machine(id))
		require.NoError(t, err)
	}
	_, err := f.ledger.Deactivate(ctx, l.ID(), "b")
	require.NoError(t, err)

	active, err := f.ledger.ListActive(ctx, l.ID())
	require.NoError(t, err)
	require.Len(t, active, 2)
	ids := []string{active[0].MachineID(), active[1].MachineID()}
	assert.ElementsMatch(t, []string{"a", "c"}, ids)
}

func TestActivationLedger_ConcurrentClaims(t *testing.T) {
	const (
		workers = 12
		slots   = 3
	)
	f := newFixtureOn(setupFileTestDB(t, workers))
	ctx := t.Context()
	p := f.createProduct(t, "concurrent")
	l := f.createLicense(t, p.ID(), "LG-CONC-URRE-NT00-0001", slots, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		start     = make(chan struct{})
		succeeded int
		refused   int
		failures  []error
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			var err error
			for try := 0; try < 50; try++ {
				_, _, err = f.ledger.Activate(ctx, l.ID(), machine(fmt.Sprintf("m%d", i)))
				if !isSQLiteBusy(err) {
					break
				}
				time.Sleep(time.Duration(try+1) * time.Millisecond)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, license.ErrSlotsExhausted):
				refused++
			default:
				failures = append(failures, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, failures)
	assert.Equal(t, slots, succeeded)
	assert.Equal(t, workers-slots, refused)
	assert.Equal(t, slots, f.counter(t, l.ID()))
	assert.Equal(t, slots, f.activeRows(t, l.ID()))
}

func TestActivationLedger_CounterMatchesActiveRows(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, "property")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	run := 0
	properties.Property("counter equals active rows and never exceeds max", prop.ForAll(
		func(maxActivations int, ops []int) bool {
			run++
			l := f.createLicense(t, p.ID(), fmt.Sprintf("LG-PROP-%04d", run), maxActivations, nil)
			ctx := t.Context()

			for _, op := range ops {
				switch {
				case op > 0:
					_, _, err := f.ledger.Activate(ctx, l.ID(), machine(fmt.Sprintf("m%d", op)))
					if err != nil && !errors.Is(err, license.ErrSlotsExhausted) {
						return false
					}
				case op < 0:
					if _, err := f.ledger.Deactivate(ctx, l.ID(), fmt.Sprintf("m%d", -op)); err != nil {
						return false
					}
				}

				count := f.counter(t, l.ID())
				if count != f.activeRows(t, l.ID()) || count < 0 || count > maxActivations {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 4),
		gen.SliceOf(gen.IntRange(-5, 5)),
	))

	properties.TestingRun(t)
}
