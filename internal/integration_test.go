package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"machine-maintenance-backend/config"
	"machine-maintenance-backend/internal/api"
	"machine-maintenance-backend/internal/db"
	"machine-maintenance-backend/internal/model"
	"machine-maintenance-backend/internal/service"
)

// TestReportToWorkOrderLifecycle walks the full maintenance flow through the
// HTTP API: a client reports a critical fault, the machine goes out of
// service, an administrator assigns a technician, the technician works the
// order to completion and the originating report ends up resolved.
func TestReportToWorkOrderLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:lifecycle_it?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(testDB))

	users := []model.User{
		{Username: "admin", Nombre: "Administrador", PasswordHash: "x", Rol: model.RolAdmin, APIToken: "it-admin"},
		{Username: "tecnico1", Nombre: "Técnico Uno", PasswordHash: "x", Rol: model.RolTecnico, APIToken: "it-tecnico"},
		{Username: "cliente1", Nombre: "Cliente Uno", PasswordHash: "x", Rol: model.RolCliente, APIToken: "it-cliente"},
	}
	require.NoError(t, testDB.Create(&users).Error)
	admin, tecnico, cliente := users[0], users[1], users[2]

	machine := model.Machine{
		NumeroSerie: "SN-IT-001",
		Nombre:      "Sala Principal 07",
		Modelo:      "PK-9000",
		Estado:      model.EstadoOperativo,
	}
	require.NoError(t, testDB.Create(&machine).Error)

	lifecycle := service.NewLifecycleService(testDB, nil, nil)
	router := api.NewRouter(testDB, lifecycle, nil, &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 1,
	})

	call := func(method, path, token string, body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	var reportID uint
	t.Run("client reports a critical fault", func(t *testing.T) {
		w := call(http.MethodPost, "/api/reportes-cliente", cliente.APIToken, gin.H{
			"maquina_id":  machine.ID,
			"usuario_id":  cliente.ID,
			"descripcion": "olor a quemado en la fuente",
			"gravedad":    "Crítica",
			"tipo":        "reporte_problema",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			ID             uint   `json:"id"`
			EstadoAnterior string `json:"estado_anterior"`
			NuevoEstado    string `json:"nuevo_estado"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		reportID = resp.ID
		assert.Equal(t, "Operativo", resp.EstadoAnterior)
		assert.Equal(t, "Fuera de Servicio", resp.NuevoEstado)

		var updated model.Machine
		require.NoError(t, testDB.First(&updated, machine.ID).Error)
		assert.Equal(t, model.EstadoFueraDeServicio, updated.Estado)
		assert.Contains(t, updated.Notas, "olor a quemado en la fuente")

		var report model.ClientReport
		require.NoError(t, testDB.First(&report, reportID).Error)
		assert.Equal(t, model.ReportePendiente, report.Estado)
		assert.Equal(t, model.EstadoOperativo, report.EstadoAnterior)
		assert.Equal(t, model.EstadoFueraDeServicio, report.EstadoNuevo)
	})

	var orderID uint
	t.Run("admin assigns a technician", func(t *testing.T) {
		w := call(http.MethodPost, "/api/ordenes-trabajo", admin.APIToken, gin.H{
			"reporteId":      reportID,
			"tecnicoId":      tecnico.ID,
			"tiempoEstimado": 4,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var order model.WorkOrder
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
		orderID = order.ID
		assert.Equal(t, model.OrdenPendiente, order.Estado)
		assert.Equal(t, model.OrdenEmergencia, order.Tipo, "critical reports create emergency orders")
		assert.Equal(t, "urgente", order.Prioridad)
		assert.Regexp(t, `^OT\d{6}-\d{3}$`, order.Codigo)

		var report model.ClientReport
		require.NoError(t, testDB.First(&report, reportID).Error)
		assert.Equal(t, model.ReporteProcesado, report.Estado)
		require.NotNil(t, report.OrdenTrabajoID)
		assert.Equal(t, orderID, *report.OrdenTrabajoID)
		require.NotNil(t, report.TecnicoAsignadoID)
		assert.Equal(t, tecnico.ID, *report.TecnicoAsignadoID)
	})

	t.Run("technician starts the order", func(t *testing.T) {
		w := call(http.MethodPut, "/api/ordenes-trabajo", tecnico.APIToken, gin.H{
			"id":           orderID,
			"estado":       "en_proceso",
			"notasTecnico": "fuente de poder dañada, reemplazando",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var order model.WorkOrder
		require.NoError(t, testDB.First(&order, orderID).Error)
		assert.Equal(t, model.OrdenEnProceso, order.Estado)
		assert.NotNil(t, order.FechaInicio)
	})

	t.Run("technician completes the order", func(t *testing.T) {
		w := call(http.MethodPut, "/api/ordenes-trabajo", tecnico.APIToken, gin.H{
			"id":           orderID,
			"estado":       "completada",
			"notasTecnico": "fuente reemplazada y probada",
			"firmaCliente": "data:image/png;base64,AAAA",
			"calificacion": 5,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var order model.WorkOrder
		require.NoError(t, testDB.First(&order, orderID).Error)
		assert.Equal(t, model.OrdenCompletada, order.Estado)
		assert.NotNil(t, order.FechaFinalizacion)

		// Completion resolves the report but never restores the machine;
		// bringing it back to Operativo is an explicit admin decision.
		var report model.ClientReport
		require.NoError(t, testDB.First(&report, reportID).Error)
		assert.Equal(t, model.ReporteResuelto, report.Estado)
		assert.NotNil(t, report.FechaProcesado)

		var updated model.Machine
		require.NoError(t, testDB.First(&updated, machine.ID).Error)
		assert.Equal(t, model.EstadoFueraDeServicio, updated.Estado)
	})

	t.Run("admin restores the machine", func(t *testing.T) {
		w := call(http.MethodPut, "/api/inventario/maquinas", admin.APIToken, gin.H{
			"id":     machine.ID,
			"estado": "Operativo",
			"nota":   "Reparación verificada en sitio",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var updated model.Machine
		require.NoError(t, testDB.First(&updated, machine.ID).Error)
		assert.Equal(t, model.EstadoOperativo, updated.Estado)
		assert.Contains(t, updated.Notas, "Reparación verificada en sitio")
		assert.Contains(t, updated.Notas, "(por admin)")
	})
}
