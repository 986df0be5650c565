package service

import (
	"context"
	"fmt"
	"log"
	"time"

	stderrors "errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"machine-maintenance-backend/internal/events"
	"machine-maintenance-backend/internal/model"
	"machine-maintenance-backend/internal/parse"
)

// Notifier dispatches a push-notification job for a machine whose state
// changed. The notification worker pool implements it.
type Notifier interface {
	Dispatch(machineID uint)
}

// LifecycleService orchestrates the report-to-work-order lifecycle: creating
// client reports, pushing suggested machine states, assigning technicians and
// progressing work orders. Every multi-table write runs in a single
// transaction so no operation can leave partial state behind.
type LifecycleService struct {
	db       *gorm.DB
	events   events.Publisher
	notifier Notifier
}

// NewLifecycleService builds a service. events and notifier may be nil.
func NewLifecycleService(db *gorm.DB, publisher events.Publisher, notifier Notifier) *LifecycleService {
	return &LifecycleService{db: db, events: publisher, notifier: notifier}
}

// SuggestedState maps a fault severity to the machine state the lifecycle
// service pushes on problem reports. The table is fixed and not overridable.
func SuggestedState(g model.Severity) model.MachineState {
	switch g {
	case model.GravedadCritica, model.GravedadAlta:
		return model.EstadoFueraDeServicio
	case model.GravedadMedia:
		return model.EstadoAdvertencia
	default:
		// Baja and unrecognized severities both land here.
		return model.EstadoEnMantenimiento
	}
}

// CreateReportInput carries the client submission fields.
type CreateReportInput struct {
	MachineID   uint
	ClienteID   uint
	Descripcion string
	Gravedad    model.Severity
	Tipo        model.ReportType
}

// CreateReportResult is returned to the submitting client.
type CreateReportResult struct {
	ReportID       uint               `json:"id"`
	Message        string             `json:"message"`
	EstadoAnterior model.MachineState `json:"estado_anterior"`
	EstadoNuevo    model.MachineState `json:"nuevo_estado"`
}

// CreateReport registers a client report. For problem reports it snapshots
// the machine state, derives the suggested state from severity, pushes it to
// the machine and appends an audit block to the machine notes, all within one
// transaction. Operational confirmations never mutate the machine.
func (s *LifecycleService) CreateReport(ctx context.Context, in CreateReportInput) (*CreateReportResult, error) {
	if !model.ValidReportType(in.Tipo) {
		return nil, invalid(fmt.Sprintf("tipo de reporte inválido: %q", in.Tipo))
	}
	if in.Descripcion == "" {
		return nil, invalid("la descripción es obligatoria")
	}

	now := time.Now()
	var (
		report       model.ClientReport
		result       CreateReportResult
		stateChanged bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var machine model.Machine
		if err := tx.First(&machine, in.MachineID).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Máquina no encontrada")
			}
			return errors.WithStack(err)
		}

		estadoAnterior := machine.Estado
		estadoNuevo := estadoAnterior

		if in.Tipo == model.TipoReporteProblema {
			estadoNuevo = SuggestedState(in.Gravedad)
			note := fmt.Sprintf("[%s] Reporte de cliente (gravedad %s): %s. Estado: %s -> %s",
				now.Format("2006-01-02 15:04"), in.Gravedad, in.Descripcion, estadoAnterior, estadoNuevo)
			if err := updateEstadoTx(tx, &machine, estadoNuevo, note); err != nil {
				return err
			}
			stateChanged = estadoNuevo != estadoAnterior
		}

		report = model.ClientReport{
			MachineID:      in.MachineID,
			ClienteID:      in.ClienteID,
			Descripcion:    in.Descripcion,
			Gravedad:       in.Gravedad,
			Tipo:           in.Tipo,
			Estado:         model.ReportePendiente,
			EstadoAnterior: estadoAnterior,
			EstadoNuevo:    estadoNuevo,
			FechaReporte:   now,
		}
		if err := tx.Create(&report).Error; err != nil {
			return errors.WithStack(err)
		}

		result = CreateReportResult{
			ReportID:       report.ID,
			EstadoAnterior: estadoAnterior,
			EstadoNuevo:    estadoNuevo,
		}
		if in.Tipo == model.TipoReporteProblema {
			result.Message = fmt.Sprintf("Reporte registrado. Estado de la máquina: %s -> %s", estadoAnterior, estadoNuevo)
		} else {
			result.Message = "Confirmación operativa registrada"
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "reporte.creado", map[string]any{
		"reporte_id":   report.ID,
		"maquina_id":   report.MachineID,
		"gravedad":     report.Gravedad,
		"tipo":         report.Tipo,
		"estado_nuevo": report.EstadoNuevo,
	})
	if stateChanged && s.notifier != nil {
		s.notifier.Dispatch(report.MachineID)
	}
	return &result, nil
}

// AssignTechnician creates a work order for a pending report and marks the
// report as processed, cross-linking both records in one transaction. The
// code generator retries on unique-constraint collisions between concurrent
// same-day assignments.
func (s *LifecycleService) AssignTechnician(ctx context.Context, reportID, technicianID uint, estimatedHours float64) (*model.WorkOrder, error) {
	const maxCodeAttempts = 3

	var order model.WorkOrder
	var err error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		now := time.Now()
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var report model.ClientReport
			if err := tx.First(&report, reportID).Error; err != nil {
				if stderrors.Is(err, gorm.ErrRecordNotFound) {
					return notFound("Reporte no encontrado")
				}
				return errors.WithStack(err)
			}
			if report.TecnicoAsignadoID != nil || report.OrdenTrabajoID != nil {
				return conflict("El reporte ya tiene un técnico asignado")
			}
			if report.Estado != model.ReportePendiente {
				return conflict(fmt.Sprintf("El reporte no está pendiente (estado actual: %s)", report.Estado))
			}

			var tecnico model.User
			if err := tx.First(&tecnico, technicianID).Error; err != nil {
				if stderrors.Is(err, gorm.ErrRecordNotFound) {
					return notFound("Técnico no encontrado")
				}
				return errors.WithStack(err)
			}
			if tecnico.Rol != model.RolTecnico {
				return invalid(fmt.Sprintf("el usuario %q tiene rol %q, se requiere rol %q", tecnico.Username, tecnico.Rol, model.RolTecnico))
			}

			var machine model.Machine
			if err := tx.First(&machine, report.MachineID).Error; err != nil {
				if stderrors.Is(err, gorm.ErrRecordNotFound) {
					return notFound("Máquina no encontrada")
				}
				return errors.WithStack(err)
			}

			codigo, err := nextOrderCode(tx, now)
			if err != nil {
				return err
			}

			tipo := model.OrdenCorrectiva
			if report.Gravedad == model.GravedadCritica {
				tipo = model.OrdenEmergencia
			}

			order = model.WorkOrder{
				Codigo:           codigo,
				MachineID:        report.MachineID,
				TecnicoID:        technicianID,
				ReporteClienteID: &report.ID,
				Tipo:             tipo,
				Prioridad:        priorityFor(report.Gravedad),
				Estado:           model.OrdenPendiente,
				Descripcion:      report.Descripcion,
				TiempoEstimado:   estimatedHours,
				FechaCreacion:    now,
				FechaAsignacion:  &now,
			}
			if err := tx.Create(&order).Error; err != nil {
				return errors.WithStack(err)
			}

			updates := map[string]any{
				"tecnico_asignado_id": technicianID,
				"orden_trabajo_id":    order.ID,
				"estado_reporte":      model.ReporteProcesado,
				"fecha_asignacion":    now,
			}
			if err := tx.Model(&report).Updates(updates).Error; err != nil {
				return errors.WithStack(err)
			}
			return nil
		})
		if stderrors.Is(errors.Cause(err), gorm.ErrDuplicatedKey) {
			log.Printf("work-order code collision on attempt %d, retrying", attempt+1)
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "reporte.asignado", map[string]any{
		"reporte_id": reportID,
		"orden_id":   order.ID,
		"codigo":     order.Codigo,
		"tecnico_id": technicianID,
	})
	return &order, nil
}

// UpdateReportStatus transitions a report forward through its lifecycle.
// Backward transitions are rejected. Admin notes are appended, never
// overwritten. The machine state is deliberately untouched: resolving a
// report does not restore the machine, that is a separate admin action.
func (s *LifecycleService) UpdateReportStatus(ctx context.Context, id uint, newStatus model.ReportStatus, adminNotes string, fechaProcesado *time.Time) (*model.ClientReport, error) {
	if newStatus != "" && model.ReportStatusRank(newStatus) < 0 {
		return nil, invalid(fmt.Sprintf("estado de reporte inválido: %q", newStatus))
	}

	var report model.ClientReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Reporte no encontrado")
			}
			return errors.WithStack(err)
		}

		updates := map[string]any{}
		if newStatus != "" {
			if model.ReportStatusRank(newStatus) < model.ReportStatusRank(report.Estado) {
				return invalid(fmt.Sprintf("transición de estado inválida: %s -> %s", report.Estado, newStatus))
			}
			updates["estado_reporte"] = newStatus
			if newStatus != model.ReportePendiente && report.FechaProcesado == nil {
				when := time.Now()
				if fechaProcesado != nil {
					when = *fechaProcesado
				}
				updates["fecha_procesado"] = when
			}
		}
		if adminNotes != "" {
			updates["observaciones_admin"] = appendNote(report.ObservacionesAdmin, adminNotes)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&report).Updates(updates).Error; err != nil {
			return errors.WithStack(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteReport hard-deletes a report. Any work order referencing it keeps
// existing but its report reference is nulled in the same transaction so no
// dangling reference survives.
func (s *LifecycleService) DeleteReport(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report model.ClientReport
		if err := tx.First(&report, id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Reporte no encontrado")
			}
			return errors.WithStack(err)
		}
		if err := tx.Model(&model.WorkOrder{}).
			Where("reporte_cliente_id = ?", id).
			Update("reporte_cliente_id", nil).Error; err != nil {
			return errors.WithStack(err)
		}
		if err := tx.Delete(&report).Error; err != nil {
			return errors.WithStack(err)
		}
		return nil
	})
}

// UpdateMachineEstado mutates only the machine state and appends the given
// note to the audit trail. Used by the lifecycle and by direct admin edits.
func (s *LifecycleService) UpdateMachineEstado(ctx context.Context, machineID uint, newEstado model.MachineState, note string) (*model.Machine, error) {
	if !model.ValidMachineState(newEstado) {
		return nil, invalid(fmt.Sprintf("estado de máquina inválido: %q", newEstado))
	}

	var (
		machine model.Machine
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&machine, machineID).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Máquina no encontrada")
			}
			return errors.WithStack(err)
		}
		changed = machine.Estado != newEstado
		return updateEstadoTx(tx, &machine, newEstado, note)
	})
	if err != nil {
		return nil, err
	}

	// Notify only once the change is committed.
	if changed && s.notifier != nil {
		s.notifier.Dispatch(machine.ID)
	}
	return &machine, nil
}

// updateEstadoTx writes the new state and the appended notes. Only those two
// columns are touched; overwriting the notes field is never allowed.
func updateEstadoTx(tx *gorm.DB, machine *model.Machine, estado model.MachineState, note string) error {
	machine.Estado = estado
	if note != "" {
		machine.Notas = appendNote(machine.Notas, note)
	}
	err := tx.Model(machine).Updates(map[string]any{
		"estado": machine.Estado,
		"notas":  machine.Notas,
	}).Error
	return errors.WithStack(err)
}

func appendNote(existing, block string) string {
	if existing == "" {
		return block
	}
	return existing + "\n\n" + block
}

func priorityFor(g model.Severity) string {
	switch g {
	case model.GravedadCritica:
		return "urgente"
	case model.GravedadAlta:
		return "alta"
	case model.GravedadMedia:
		return "media"
	}
	return "baja"
}

// nextOrderCode derives the next daily sequence by scanning today's codes
// inside the caller's transaction. The unique index on codigo backstops the
// scan against concurrent assignments.
func nextOrderCode(tx *gorm.DB, now time.Time) (string, error) {
	prefix := parse.DayPrefix(now)
	var codes []string
	if err := tx.Model(&model.WorkOrder{}).
		Where("codigo LIKE ?", prefix+"%").
		Pluck("codigo", &codes).Error; err != nil {
		return "", errors.WithStack(err)
	}

	maxSeq := 0
	for _, c := range codes {
		parsed, err := parse.ParseOrderCode(c)
		if err != nil {
			log.Printf("skipping unparseable work-order code %q: %v", c, err)
			continue
		}
		if parsed.Seq > maxSeq {
			maxSeq = parsed.Seq
		}
	}
	return parse.FormatOrderCode(now, maxSeq+1), nil
}

func (s *LifecycleService) publish(ctx context.Context, routingKey string, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		log.Printf("publish %s failed: %v", routingKey, err)
	}
}
