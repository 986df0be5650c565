package service

import (
	"context"
	"fmt"
	"time"

	stderrors "errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"machine-maintenance-backend/internal/model"
)

// workOrderTransitions lists the permitted state changes. completada and
// cancelada are terminal.
var workOrderTransitions = map[model.WorkOrderStatus][]model.WorkOrderStatus{
	model.OrdenPendiente: {model.OrdenEnProceso, model.OrdenCancelada},
	model.OrdenEnProceso: {model.OrdenCompletada, model.OrdenCancelada},
}

func canTransition(from, to model.WorkOrderStatus) bool {
	for _, s := range workOrderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CreateWorkOrderInput carries the fields for a work order created directly
// by an administrator, without an originating client report.
type CreateWorkOrderInput struct {
	MachineID      uint
	TecnicoID      uint
	Tipo           model.WorkOrderType
	Prioridad      string
	Descripcion    string
	TiempoEstimado float64
}

// CreateWorkOrder creates a standalone work order (preventive maintenance and
// the like). The technician role check mirrors AssignTechnician.
func (s *LifecycleService) CreateWorkOrder(ctx context.Context, in CreateWorkOrderInput) (*model.WorkOrder, error) {
	now := time.Now()
	var order model.WorkOrder

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tecnico model.User
		if err := tx.First(&tecnico, in.TecnicoID).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Técnico no encontrado")
			}
			return errors.WithStack(err)
		}
		if tecnico.Rol != model.RolTecnico {
			return invalid(fmt.Sprintf("el usuario %q tiene rol %q, se requiere rol %q", tecnico.Username, tecnico.Rol, model.RolTecnico))
		}

		var machine model.Machine
		if err := tx.First(&machine, in.MachineID).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Máquina no encontrada")
			}
			return errors.WithStack(err)
		}

		codigo, err := nextOrderCode(tx, now)
		if err != nil {
			return err
		}

		tipo := in.Tipo
		if tipo == "" {
			tipo = model.OrdenPreventiva
		}
		prioridad := in.Prioridad
		if prioridad == "" {
			prioridad = "media"
		}

		order = model.WorkOrder{
			Codigo:          codigo,
			MachineID:       in.MachineID,
			TecnicoID:       in.TecnicoID,
			Tipo:            tipo,
			Prioridad:       prioridad,
			Estado:          model.OrdenPendiente,
			Descripcion:     in.Descripcion,
			TiempoEstimado:  in.TiempoEstimado,
			FechaCreacion:   now,
			FechaAsignacion: &now,
		}
		if err := tx.Create(&order).Error; err != nil {
			return errors.WithStack(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "orden.creada", map[string]any{
		"orden_id":   order.ID,
		"codigo":     order.Codigo,
		"maquina_id": order.MachineID,
		"tecnico_id": order.TecnicoID,
	})
	return &order, nil
}

// UpdateWorkOrderInput carries the technician-facing progress fields.
type UpdateWorkOrderInput struct {
	Estado            model.WorkOrderStatus
	NotasTecnico      string
	FirmaCliente      string
	Calificacion      *int
	FechaInicio       *time.Time
	FechaFinalizacion *time.Time
}

// UpdateWorkOrder advances a work order through its state machine. Entering
// en_proceso stamps fecha_inicio; entering completada stamps
// fecha_finalizacion, computes tiempo_real and, when the order originated
// from a client report, resolves that report in the same transaction.
func (s *LifecycleService) UpdateWorkOrder(ctx context.Context, id uint, in UpdateWorkOrderInput) (*model.WorkOrder, error) {
	if in.Estado != "" && !model.ValidWorkOrderStatus(in.Estado) {
		return nil, invalid(fmt.Sprintf("estado de orden inválido: %q", in.Estado))
	}

	var order model.WorkOrder
	var completed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Orden de trabajo no encontrada")
			}
			return errors.WithStack(err)
		}

		now := time.Now()

		if in.Estado != "" && in.Estado != order.Estado {
			if !canTransition(order.Estado, in.Estado) {
				return invalid(fmt.Sprintf("transición de orden inválida: %s -> %s", order.Estado, in.Estado))
			}
			order.Estado = in.Estado

			switch in.Estado {
			case model.OrdenEnProceso:
				inicio := now
				if in.FechaInicio != nil {
					inicio = *in.FechaInicio
				}
				order.FechaInicio = &inicio
			case model.OrdenCompletada:
				fin := now
				if in.FechaFinalizacion != nil {
					fin = *in.FechaFinalizacion
				}
				order.FechaFinalizacion = &fin
				if order.FechaInicio != nil && fin.After(*order.FechaInicio) {
					order.TiempoReal = fin.Sub(*order.FechaInicio).Hours()
				}
				completed = true

				if order.ReporteClienteID != nil {
					if err := resolveReportTx(tx, *order.ReporteClienteID, now); err != nil {
						return err
					}
				}
			}
		}

		if in.NotasTecnico != "" {
			order.NotasTecnico = appendNote(order.NotasTecnico, in.NotasTecnico)
		}
		if in.FirmaCliente != "" {
			order.FirmaCliente = in.FirmaCliente
		}
		if in.Calificacion != nil {
			order.Calificacion = in.Calificacion
		}

		if err := tx.Save(&order).Error; err != nil {
			return errors.WithStack(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.publish(ctx, "orden.completada", map[string]any{
			"orden_id":    order.ID,
			"codigo":      order.Codigo,
			"maquina_id":  order.MachineID,
			"tecnico_id":  order.TecnicoID,
			"tiempo_real": order.TiempoReal,
		})
	}
	return &order, nil
}

// resolveReportTx marks the linked report resuelto when its work order
// completes. This is the single place completion cascades back into the
// report lifecycle; the machine state is never touched here.
func resolveReportTx(tx *gorm.DB, reportID uint, now time.Time) error {
	var report model.ClientReport
	if err := tx.First(&report, reportID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			// The report was deleted after the order was created; its
			// reference should already be nil, nothing to resolve.
			return nil
		}
		return errors.WithStack(err)
	}

	updates := map[string]any{"estado_reporte": model.ReporteResuelto}
	if report.FechaProcesado == nil {
		updates["fecha_procesado"] = now
	}
	return errors.WithStack(tx.Model(&report).Updates(updates).Error)
}
