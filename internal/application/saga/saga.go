// Package saga ejecuta flujos de varios pasos con compensación explícita.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-kardex/internal/domain"
)

// Step un paso del flujo. Compensate deshace Action y puede ser nil.
// Un paso Degradable que falla no detiene el flujo: se reporta y los siguientes pasos continúan.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	Degradable bool
}

// StepFailure falla de un paso degradable.
type StepFailure struct {
	Step string
	Err  error
}

// Outcome resultado de una ejecución.
type Outcome struct {
	Completed []string
	Degraded  []StepFailure
}

// IsDegraded indica si algún paso degradable falló.
func (o Outcome) IsDegraded() bool { return len(o.Degraded) > 0 }

// Coordinator ejecuta pasos en orden y, si uno no degradable falla, compensa los completados en
// orden inverso. La compensación no se cancela con el contexto de la petición.
type Coordinator struct {
	log zerolog.Logger
}

// New crea un coordinador.
func New(log zerolog.Logger) *Coordinator {
	return &Coordinator{log: log}
}

// Run ejecuta los pasos. Devuelve el error del paso envuelto con su nombre si todo se compensó,
// o un *domain.PartialFailure si alguna compensación falló.
func (c *Coordinator) Run(ctx context.Context, steps ...Step) (Outcome, error) {
	var out Outcome
	done := make([]Step, 0, len(steps))

	for _, st := range steps {
		err := st.Action(ctx)
		if err == nil {
			out.Completed = append(out.Completed, st.Name)
			done = append(done, st)
			continue
		}
		if st.Degradable {
			c.log.Warn().Err(err).Str("paso", st.Name).Msg("paso degradado, el flujo continúa")
			out.Degraded = append(out.Degraded, StepFailure{Step: st.Name, Err: err})
			continue
		}

		if compErr := c.compensate(ctx, done); compErr != nil {
			return out, &domain.PartialFailure{
				Step:            st.Name,
				Completed:       out.Completed,
				Err:             err,
				CompensationErr: compErr,
			}
		}
		return out, fmt.Errorf("%s: %w", st.Name, err)
	}
	return out, nil
}

func (c *Coordinator) compensate(ctx context.Context, done []Step) error {
	cctx := context.WithoutCancel(ctx)
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		if st.Compensate == nil {
			continue
		}
		if err := st.Compensate(cctx); err != nil {
			c.log.Error().Err(err).Str("paso", st.Name).Msg("compensación fallida")
			errs = append(errs, fmt.Errorf("compensar %s: %w", st.Name, err))
			continue
		}
		c.log.Info().Str("paso", st.Name).Msg("paso compensado")
	}
	return errors.Join(errs...)
}
