package designer

import (
	"context"
	"errors"
	"time"

	"tienda-web/core"
	"tienda-web/notify"
	"tienda-web/schedule"

	"github.com/sirupsen/logrus"
)

const (
	AutosaveDelay = 2 * time.Second
	saveTimeout   = 5 * time.Second
)

const (
	msgAutosaved   = "Auto-guardado ✓"
	msgQuotaFull   = "⚠️ Sin espacio de almacenamiento. No hay lugar para guardar tu diseño. Descartá borradores anteriores o exportá tu diseño por WhatsApp ahora."
	msgSaveFailure = "⚠️ Error al guardar. No se pudo guardar tu diseño. Por favor, intentá exportarlo por WhatsApp."
)

// Autosaver writes the design to Drafts after it has been quiet for
// AutosaveDelay. Designs without a template are never saved.
type Autosaver struct {
	ctx      context.Context
	drafts   *Drafts
	notifier notify.Notifier
	debounce *schedule.Debouncer
}

func NewAutosaver(ctx context.Context, drafts *Drafts, clock schedule.Clock, notifier notify.Notifier) *Autosaver {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Autosaver{
		ctx:      ctx,
		drafts:   drafts,
		notifier: notifier,
		debounce: schedule.NewDebouncer(clock, AutosaveDelay),
	}
}

// Observe schedules a save of d.
func (a *Autosaver) Observe(d core.Design) {
	if d.TemplateID == "" {
		return
	}
	snapshot := d.Clone()
	a.debounce.Trigger(func() { a.save(snapshot) })
}

func (a *Autosaver) save(d core.Design) {
	ctx, cancel := context.WithTimeout(a.ctx, saveTimeout)
	defer cancel()

	err := a.drafts.Save(ctx, d)
	switch {
	case err == nil:
		a.notifier.Notify(notify.Success, msgAutosaved)
	case errors.Is(err, core.ErrQuotaExceeded):
		logrus.WithField("template_id", d.TemplateID).WithError(err).Warn("Design draft exceeds storage quota")
		a.notifier.Notify(notify.Error, msgQuotaFull)
	default:
		logrus.WithField("template_id", d.TemplateID).WithError(err).Error("Failed to save design draft")
		a.notifier.Notify(notify.Error, msgSaveFailure)
	}
}

func (a *Autosaver) Pending() bool { return a.debounce.Pending() }

// Stop cancels a scheduled save.
func (a *Autosaver) Stop() { a.debounce.Stop() }
