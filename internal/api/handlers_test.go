package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"machine-maintenance-backend/config"
	"machine-maintenance-backend/internal/db"
	"machine-maintenance-backend/internal/model"
	"machine-maintenance-backend/internal/service"
)

const (
	adminToken   = "test-admin-token"
	tecnicoToken = "test-tecnico-token"
	clienteToken = "test-cliente-token"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	users := []model.User{
		{Username: "admin", Nombre: "Administrador", PasswordHash: "x", Rol: model.RolAdmin, APIToken: adminToken},
		{Username: "tecnico1", Nombre: "Técnico Uno", PasswordHash: "x", Rol: model.RolTecnico, APIToken: tecnicoToken},
		{Username: "cliente1", Nombre: "Cliente Uno", PasswordHash: "x", Rol: model.RolCliente, APIToken: clienteToken},
	}
	require.NoError(t, gormDB.Create(&users).Error)

	lifecycle := service.NewLifecycleService(gormDB, nil, nil)
	router := NewRouter(gormDB, lifecycle, nil, &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 1,
	})
	return router, gormDB
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedMachine(t *testing.T, gormDB *gorm.DB, estado model.MachineState) *model.Machine {
	t.Helper()
	machine := &model.Machine{
		NumeroSerie: "SN-" + strings.ReplaceAll(t.Name(), "/", "_"),
		Nombre:      "Sala Norte 01",
		Modelo:      "PK-9000",
		Estado:      estado,
	}
	require.NoError(t, gormDB.Create(machine).Error)
	return machine
}

func TestAuthRequired(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/reportes-cliente", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"token requerido"}`, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/api/reportes-cliente", "no-such-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"token inválido"}`, w.Body.String())
}

func TestRoleEnforcement(t *testing.T) {
	router, _ := setupRouter(t)

	// Clients may not edit reports or touch work orders.
	w := doRequest(t, router, http.MethodPut, "/api/reportes-cliente", clienteToken, gin.H{"id": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/ordenes-trabajo", clienteToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Technicians may not create work orders, only progress them.
	w = doRequest(t, router, http.MethodPost, "/api/ordenes-trabajo", tecnicoToken, gin.H{"tecnicoId": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Technicians may not create client reports.
	w = doRequest(t, router, http.MethodPost, "/api/reportes-cliente", tecnicoToken, gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateReportEndpoint(t *testing.T) {
	router, gormDB := setupRouter(t)
	machine := seedMachine(t, gormDB, model.EstadoOperativo)

	var cliente model.User
	require.NoError(t, gormDB.First(&cliente, "username = ?", "cliente1").Error)

	w := doRequest(t, router, http.MethodPost, "/api/reportes-cliente", clienteToken, gin.H{
		"maquina_id":  machine.ID,
		"usuario_id":  cliente.ID,
		"descripcion": "no acepta billetes",
		"gravedad":    "Crítica",
		"tipo":        "reporte_problema",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID             uint   `json:"id"`
		Message        string `json:"message"`
		EstadoAnterior string `json:"estado_anterior"`
		NuevoEstado    string `json:"nuevo_estado"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "Operativo", resp.EstadoAnterior)
	assert.Equal(t, "Fuera de Servicio", resp.NuevoEstado)
	assert.Contains(t, resp.Message, "Fuera de Servicio")

	var updated model.Machine
	require.NoError(t, gormDB.First(&updated, machine.ID).Error)
	assert.Equal(t, model.EstadoFueraDeServicio, updated.Estado)
}

func TestCreateReportMissingFields(t *testing.T) {
	router, gormDB := setupRouter(t)
	machine := seedMachine(t, gormDB, model.EstadoOperativo)

	w := doRequest(t, router, http.MethodPost, "/api/reportes-cliente", clienteToken, gin.H{
		"maquina_id":  machine.ID,
		"usuario_id":  1,
		"descripcion": "sin tipo",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReportUnknownMachine(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/reportes-cliente", clienteToken, gin.H{
		"maquina_id":  9999,
		"usuario_id":  1,
		"descripcion": "no enciende",
		"gravedad":    "Alta",
		"tipo":        "reporte_problema",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Máquina no encontrada"}`, w.Body.String())
}

func TestUpdateReportBackwardTransition(t *testing.T) {
	router, gormDB := setupRouter(t)
	machine := seedMachine(t, gormDB, model.EstadoOperativo)

	w := doRequest(t, router, http.MethodPost, "/api/reportes-cliente", clienteToken, gin.H{
		"maquina_id":  machine.ID,
		"usuario_id":  1,
		"descripcion": "pantalla congelada",
		"gravedad":    "Media",
		"tipo":        "reporte_problema",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doRequest(t, router, http.MethodPut, "/api/reportes-cliente", adminToken, gin.H{
		"id":     created.ID,
		"estado": "resuelto",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, router, http.MethodPut, "/api/reportes-cliente", adminToken, gin.H{
		"id":     created.ID,
		"estado": "pendiente",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignTechnicianEndpoint(t *testing.T) {
	router, gormDB := setupRouter(t)
	machine := seedMachine(t, gormDB, model.EstadoOperativo)

	var tecnico model.User
	require.NoError(t, gormDB.First(&tecnico, "username = ?", "tecnico1").Error)

	w := doRequest(t, router, http.MethodPost, "/api/reportes-cliente", clienteToken, gin.H{
		"maquina_id":  machine.ID,
		"usuario_id":  1,
		"descripcion": "vibración anormal",
		"gravedad":    "Alta",
		"tipo":        "reporte_problema",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doRequest(t, router, http.MethodPost, "/api/ordenes-trabajo", adminToken, gin.H{
		"reporteId":      created.ID,
		"tecnicoId":      tecnico.ID,
		"tiempoEstimado": 2.5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order model.WorkOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.True(t, strings.HasPrefix(order.Codigo, "OT"))
	assert.Equal(t, model.OrdenPendiente, order.Estado)

	// A second assignment on the same report conflicts.
	w = doRequest(t, router, http.MethodPost, "/api/ordenes-trabajo", adminToken, gin.H{
		"reporteId": created.ID,
		"tecnicoId": tecnico.ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"El reporte ya tiene un técnico asignado"}`, w.Body.String())
}

func TestCreateWorkOrderRequiresTarget(t *testing.T) {
	router, gormDB := setupRouter(t)

	var tecnico model.User
	require.NoError(t, gormDB.First(&tecnico, "username = ?", "tecnico1").Error)

	// Neither reporteId nor maquinaId given.
	w := doRequest(t, router, http.MethodPost, "/api/ordenes-trabajo", adminToken, gin.H{
		"tecnicoId": tecnico.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"se requiere reporteId o maquinaId"}`, w.Body.String())
}

func TestListWorkOrdersInvalidFilter(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/ordenes-trabajo?estado=archivada", tecnicoToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListReportsFilter(t *testing.T) {
	router, gormDB := setupRouter(t)
	machine := seedMachine(t, gormDB, model.EstadoOperativo)

	for _, descripcion := range []string{"primero", "segundo"} {
		w := doRequest(t, router, http.MethodPost, "/api/reportes-cliente", clienteToken, gin.H{
			"maquina_id":  machine.ID,
			"usuario_id":  1,
			"descripcion": descripcion,
			"gravedad":    "Baja",
			"tipo":        "reporte_problema",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(t, router, http.MethodGet, "/api/reportes-cliente?estado=pendiente", clienteToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []model.ClientReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	assert.Len(t, reports, 2)

	w = doRequest(t, router, http.MethodGet, "/api/reportes-cliente?estado=resuelto", clienteToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reports = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	assert.Empty(t, reports)

	w = doRequest(t, router, http.MethodGet, "/api/reportes-cliente?estado=inventado", clienteToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMachineEndpoints(t *testing.T) {
	router, gormDB := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/inventario/maquinas", adminToken, gin.H{
		"numero_serie": "SN-NEW-001",
		"nombre":       "Sala Este 05",
		"modelo":       "PK-7000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var machine model.Machine
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &machine))
	assert.Equal(t, model.EstadoAlmacen, machine.Estado, "new machines default to Almacen")

	// A manual state change appends a signed audit note.
	w = doRequest(t, router, http.MethodPut, "/api/inventario/maquinas", adminToken, gin.H{
		"id":     machine.ID,
		"estado": "Operativo",
		"nota":   "Instalada en sala",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored model.Machine
	require.NoError(t, gormDB.First(&stored, machine.ID).Error)
	assert.Equal(t, model.EstadoOperativo, stored.Estado)
	assert.Contains(t, stored.Notas, "Instalada en sala")
	assert.Contains(t, stored.Notas, "(por admin)")

	w = doRequest(t, router, http.MethodDelete, "/api/inventario/maquinas", adminToken, gin.H{"id": machine.ID})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/api/inventario/maquinas", adminToken, gin.H{"id": machine.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMachineWritesRequireAdmin(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/inventario/maquinas", clienteToken, gin.H{
		"numero_serie": "SN-X",
		"nombre":       "Sala",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/inventario/proveedores", adminToken, gin.H{
		"nombre": "Tecnojuegos SA",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/api/inventario/ubicaciones", adminToken, gin.H{
		"nombre": "Casino Central",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/api/inventario/proveedores", clienteToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var providers []model.Provider
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &providers))
	assert.Len(t, providers, 1)
}

func TestVAPIDKeyUnconfigured(t *testing.T) {
	router, _ := setupRouter(t)

	// The router was built without webpush options.
	w := doRequest(t, router, http.MethodGet, "/api/vapid_public_key", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPutSubscriptionInvalidBody(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodPut, "/api/subscriptions", clienteToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
