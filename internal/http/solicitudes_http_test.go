package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sivigila/solicitudes/internal/auth"
	"github.com/sivigila/solicitudes/internal/categoria"
	"github.com/sivigila/solicitudes/internal/config"
	"github.com/sivigila/solicitudes/internal/docstore"
	"github.com/sivigila/solicitudes/internal/identidad"
	"github.com/sivigila/solicitudes/internal/service"
	"github.com/sivigila/solicitudes/internal/solicitud"
	"github.com/sivigila/solicitudes/internal/storage"
	"github.com/sivigila/solicitudes/internal/usuario"
)

type fakeRedis struct {
	vals map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{vals: make(map[string]string)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.vals[key] = string(v)
	case string:
		f.vals[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := f.vals[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.vals[k]; ok {
			delete(f.vals, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type entorno struct {
	router      http.Handler
	store       *docstore.MemoryStore
	jwt         *auth.JWTManager
	solicitudes *solicitud.Service
	admin       usuario.Usuario
	referente   usuario.Usuario
	solicitante usuario.Usuario
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()

	store := docstore.NewMemoryStore()
	cache := newFakeRedis()

	cfg := &config.Config{
		JWTSecret:       "clave-de-prueba-con-longitud-suficiente",
		JWTAccessTTL:    time.Hour,
		JWTRefreshTTL:   24 * time.Hour,
		SessionCacheTTL: time.Hour,
		AllowOrigins:    []string{"https://panel.sivigila.gov.co"},
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}

	perfiles := usuario.NewRepository(store)
	identidades := identidad.NewRepository(store)
	solicitudesRepo := solicitud.NewRepository(store)

	resolver := service.NewResolver(perfiles, cache, cfg.SessionCacheTTL)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(identidades, resolver, cache, jwtManager, cfg.JWTRefreshTTL)
	solicitudes := solicitud.NewService(solicitudesRepo)

	e := &entorno{
		store:       store,
		jwt:         jwtManager,
		solicitudes: solicitudes,
		admin:       usuario.Usuario{UID: "u-adm", Nombre: "Admin", Email: "admin@demo.gov.co", Rol: usuario.RolAdministrador, Estado: true},
		referente:   usuario.Usuario{UID: "u-ref", Nombre: "Referente", Email: "ref@demo.gov.co", Rol: usuario.RolReferente, Estado: true},
		solicitante: usuario.Usuario{UID: "u-sol", Nombre: "Solicitante", Email: "sol@demo.gov.co", Rol: usuario.RolSolicitante, Estado: true},
	}

	ctx := context.Background()
	for _, perfil := range []usuario.Usuario{e.admin, e.referente, e.solicitante} {
		if err := perfiles.Append(ctx, perfil); err != nil {
			t.Fatalf("sembrando perfil %s: %v", perfil.UID, err)
		}
	}

	e.router = NewRouter(cfg, Deps{
		AuthService: authService,
		Resolver:    resolver,
		Solicitudes: solicitudes,
		Usuarios:    usuario.NewService(perfiles, authService, storage.NoopStore{}, resolver),
		Categorias:  categoria.NewService(categoria.NewRepository(store), storage.NoopStore{}),
	})
	return e
}

func (e *entorno) token(t *testing.T, u usuario.Usuario) string {
	t.Helper()
	signed, _, err := e.jwt.GenerateAccessToken(u.UID, []string{string(u.Rol)})
	if err != nil {
		t.Fatalf("generando token: %v", err)
	}
	return signed
}

func (e *entorno) hacer(t *testing.T, metodo, ruta, token string, cuerpo any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if cuerpo != nil {
		raw, err := json.Marshal(cuerpo)
		if err != nil {
			t.Fatalf("serializando cuerpo: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(metodo, ruta, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodificar(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *ErrorBody      `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decodificando envelope: %v (%s)", err, rec.Body.String())
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decodificando data: %v", err)
		}
	}
}

func codigoDeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Error *ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decodificando envelope de error: %v", err)
	}
	if envelope.Error == nil {
		t.Fatalf("esperaba error en el envelope: %s", rec.Body.String())
	}
	return envelope.Error.Code
}

func cuerpoCreacion() map[string]any {
	return map[string]any{
		"name":        "Instalación sede norte",
		"description": "Equipo nuevo sin el aplicativo instalado",
		"type":        "sivigila",
		"subtype":     "Instalación",
	}
}

func TestSolicitudesRequierenToken(t *testing.T) {
	e := nuevoEntorno(t)

	rec := e.hacer(t, http.MethodGet, "/solicitudes/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sin token: status = %d", rec.Code)
	}
}

func TestCrearSolicitudQuedaPendiente(t *testing.T) {
	e := nuevoEntorno(t)

	rec := e.hacer(t, http.MethodPost, "/solicitudes/", e.token(t, e.solicitante), cuerpoCreacion())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var creada solicitud.Solicitud
	decodificar(t, rec, &creada)
	if creada.Estado != solicitud.EstadoPendiente {
		t.Errorf("estado = %q, esperaba pendiente", creada.Estado)
	}
	if creada.Usuario.UID != e.solicitante.UID {
		t.Errorf("solicitante = %q", creada.Usuario.UID)
	}
	if creada.UID == "" || creada.CreatedAt.IsZero() {
		t.Error("uid y createdAt deben quedar estampados")
	}
}

func TestCrearSolicitudInvalidaDevuelveCampo(t *testing.T) {
	e := nuevoEntorno(t)

	cuerpo := cuerpoCreacion()
	cuerpo["subtype"] = "Visita"
	rec := e.hacer(t, http.MethodPost, "/solicitudes/", e.token(t, e.solicitante), cuerpo)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := codigoDeError(t, rec); code != "VALIDATION" {
		t.Errorf("code = %q", code)
	}
}

func TestListadoRespetaElAlcancePorRol(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()

	propia, err := e.solicitudes.Crear(ctx, e.solicitante, solicitud.CrearInput{
		Nombre: "Caso propio", Descripcion: "Descripción del caso propio",
		Tipo: solicitud.TipoSivigila, Subtipo: solicitud.SubtipoAjustes,
	})
	if err != nil {
		t.Fatalf("sembrando: %v", err)
	}
	otro := usuario.Usuario{UID: "u-otro", Rol: usuario.RolSolicitante, Estado: true}
	if _, err := e.solicitudes.Crear(ctx, otro, solicitud.CrearInput{
		Nombre: "Caso ajeno", Descripcion: "Descripción del caso ajeno",
		Tipo: solicitud.TipoSivigila, Subtipo: solicitud.SubtipoBAI,
	}); err != nil {
		t.Fatalf("sembrando: %v", err)
	}

	var pagina solicitud.Pagina

	rec := e.hacer(t, http.MethodGet, "/solicitudes/", e.token(t, e.admin), nil)
	decodificar(t, rec, &pagina)
	if pagina.Total != 2 {
		t.Errorf("el administrador ve todo: total = %d", pagina.Total)
	}

	rec = e.hacer(t, http.MethodGet, "/solicitudes/", e.token(t, e.solicitante), nil)
	decodificar(t, rec, &pagina)
	if pagina.Total != 1 || pagina.Items[0].UID != propia.UID {
		t.Errorf("el solicitante ve solo lo propio: %+v", pagina)
	}

	rec = e.hacer(t, http.MethodGet, "/solicitudes/", e.token(t, e.referente), nil)
	decodificar(t, rec, &pagina)
	if pagina.Total != 0 {
		t.Errorf("el referente sin asignaciones no ve nada: total = %d", pagina.Total)
	}

	// los filtros no amplían el alcance
	rec = e.hacer(t, http.MethodGet, "/solicitudes/?q=ajeno", e.token(t, e.solicitante), nil)
	decodificar(t, rec, &pagina)
	if pagina.Total != 0 {
		t.Errorf("la búsqueda no debe mostrar registros fuera del alcance: %d", pagina.Total)
	}
}

func TestFlujoAsignarYResponder(t *testing.T) {
	e := nuevoEntorno(t)

	var creada solicitud.Solicitud
	rec := e.hacer(t, http.MethodPost, "/solicitudes/", e.token(t, e.solicitante), cuerpoCreacion())
	decodificar(t, rec, &creada)

	// asignar a un no referente se rechaza
	rec = e.hacer(t, http.MethodPost, "/solicitudes/"+creada.UID+"/asignar", e.token(t, e.admin),
		map[string]string{"operarioUid": e.solicitante.UID})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("asignar a solicitante: status = %d", rec.Code)
	}

	rec = e.hacer(t, http.MethodPost, "/solicitudes/"+creada.UID+"/asignar", e.token(t, e.admin),
		map[string]string{"operarioUid": e.referente.UID})
	if rec.Code != http.StatusOK {
		t.Fatalf("asignar: status = %d: %s", rec.Code, rec.Body.String())
	}
	var asignada solicitud.Solicitud
	decodificar(t, rec, &asignada)
	if asignada.Estado != solicitud.EstadoAsignada || asignada.Operario == nil || asignada.AssignedAt == nil {
		t.Fatalf("asignación incompleta: %+v", asignada)
	}

	// el referente asignado responde y finaliza
	rec = e.hacer(t, http.MethodPost, "/solicitudes/"+creada.UID+"/responder", e.token(t, e.referente),
		map[string]string{"answer": "Instalación realizada en sitio"})
	if rec.Code != http.StatusOK {
		t.Fatalf("responder: status = %d: %s", rec.Code, rec.Body.String())
	}
	var final solicitud.Solicitud
	decodificar(t, rec, &final)
	if final.Estado != solicitud.EstadoFinalizada || final.AnswerAt == nil {
		t.Fatalf("respuesta incompleta: %+v", final)
	}

	// finalizada es terminal
	rec = e.hacer(t, http.MethodPost, "/solicitudes/"+creada.UID+"/asignar", e.token(t, e.admin),
		map[string]string{"operarioUid": e.referente.UID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("asignar sobre finalizada: status = %d", rec.Code)
	}
	if code := codigoDeError(t, rec); code != "TRANSICION" {
		t.Errorf("code = %q", code)
	}
}

func TestReferenteNoRespondeLoNoAsignado(t *testing.T) {
	e := nuevoEntorno(t)

	var creada solicitud.Solicitud
	rec := e.hacer(t, http.MethodPost, "/solicitudes/", e.token(t, e.solicitante), cuerpoCreacion())
	decodificar(t, rec, &creada)

	rec = e.hacer(t, http.MethodPost, "/solicitudes/"+creada.UID+"/responder", e.token(t, e.referente),
		map[string]string{"answer": "Intento sin asignación"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAtajoDeAdministradorResponderDesdePendiente(t *testing.T) {
	e := nuevoEntorno(t)

	var creada solicitud.Solicitud
	rec := e.hacer(t, http.MethodPost, "/solicitudes/", e.token(t, e.solicitante), cuerpoCreacion())
	decodificar(t, rec, &creada)

	rec = e.hacer(t, http.MethodPost, "/solicitudes/"+creada.UID+"/responder", e.token(t, e.admin),
		map[string]string{"answer": "Resuelto por mesa de ayuda"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var final solicitud.Solicitud
	decodificar(t, rec, &final)
	if final.Operario == nil || final.Operario.UID != e.admin.UID || final.AssignedAt == nil {
		t.Fatalf("el administrador debe quedar como operario de registro: %+v", final)
	}
}

func TestEliminarEsExclusivoDelAdministrador(t *testing.T) {
	e := nuevoEntorno(t)

	var creada solicitud.Solicitud
	rec := e.hacer(t, http.MethodPost, "/solicitudes/", e.token(t, e.solicitante), cuerpoCreacion())
	decodificar(t, rec, &creada)

	rec = e.hacer(t, http.MethodDelete, "/solicitudes/"+creada.UID, e.token(t, e.solicitante), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("el solicitante no elimina: status = %d", rec.Code)
	}

	rec = e.hacer(t, http.MethodDelete, "/solicitudes/"+creada.UID, e.token(t, e.admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("el administrador elimina: status = %d", rec.Code)
	}

	rec = e.hacer(t, http.MethodGet, "/solicitudes/"+creada.UID, e.token(t, e.admin), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("tras eliminar: status = %d", rec.Code)
	}
}

func TestObtenerSolicitudAjenaDevuelveNotFound(t *testing.T) {
	e := nuevoEntorno(t)

	otro := usuario.Usuario{UID: "u-otro", Rol: usuario.RolSolicitante, Estado: true}
	ajena, err := e.solicitudes.Crear(context.Background(), otro, solicitud.CrearInput{
		Nombre: "Caso ajeno", Descripcion: "Descripción del caso ajeno",
		Tipo: solicitud.TipoSivigila, Subtipo: solicitud.SubtipoBAI,
	})
	if err != nil {
		t.Fatalf("sembrando: %v", err)
	}

	rec := e.hacer(t, http.MethodGet, "/solicitudes/"+ajena.UID, e.token(t, e.solicitante), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("lo ajeno no se revela: status = %d", rec.Code)
	}
}

func TestObtenerIncluyeCamposEditablesDelActor(t *testing.T) {
	e := nuevoEntorno(t)

	var creada solicitud.Solicitud
	rec := e.hacer(t, http.MethodPost, "/solicitudes/", e.token(t, e.solicitante), cuerpoCreacion())
	decodificar(t, rec, &creada)

	var detalle struct {
		solicitud.Solicitud
		CamposEditables []string `json:"editableFields"`
	}

	// el dueño puede reescribir sus campos mientras está pendiente
	rec = e.hacer(t, http.MethodGet, "/solicitudes/"+creada.UID, e.token(t, e.solicitante), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	decodificar(t, rec, &detalle)
	if len(detalle.CamposEditables) != 4 {
		t.Errorf("campos del dueño pendiente = %v", detalle.CamposEditables)
	}

	rec = e.hacer(t, http.MethodPost, "/solicitudes/"+creada.UID+"/asignar", e.token(t, e.admin),
		map[string]string{"operarioUid": e.referente.UID})
	if rec.Code != http.StatusOK {
		t.Fatalf("asignar: status = %d", rec.Code)
	}

	// una vez asignada, el referente solo puede escribir la respuesta
	rec = e.hacer(t, http.MethodGet, "/solicitudes/"+creada.UID, e.token(t, e.referente), nil)
	decodificar(t, rec, &detalle)
	if len(detalle.CamposEditables) != 1 || detalle.CamposEditables[0] != "answer" {
		t.Errorf("campos del referente = %v", detalle.CamposEditables)
	}

	// y el dueño ya no edita nada
	rec = e.hacer(t, http.MethodGet, "/solicitudes/"+creada.UID, e.token(t, e.solicitante), nil)
	decodificar(t, rec, &detalle)
	if len(detalle.CamposEditables) != 0 {
		t.Errorf("campos del dueño tras asignar = %v", detalle.CamposEditables)
	}
}

func TestEditarSoloMientrasPendiente(t *testing.T) {
	e := nuevoEntorno(t)

	var creada solicitud.Solicitud
	rec := e.hacer(t, http.MethodPost, "/solicitudes/", e.token(t, e.solicitante), cuerpoCreacion())
	decodificar(t, rec, &creada)

	cuerpo := cuerpoCreacion()
	cuerpo["subtype"] = "Actualización"
	rec = e.hacer(t, http.MethodPut, "/solicitudes/"+creada.UID, e.token(t, e.solicitante), cuerpo)
	if rec.Code != http.StatusOK {
		t.Fatalf("editar pendiente: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.hacer(t, http.MethodPost, "/solicitudes/"+creada.UID+"/asignar", e.token(t, e.admin),
		map[string]string{"operarioUid": e.referente.UID})
	if rec.Code != http.StatusOK {
		t.Fatalf("asignar: status = %d", rec.Code)
	}

	rec = e.hacer(t, http.MethodPut, "/solicitudes/"+creada.UID, e.token(t, e.solicitante), cuerpo)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("editar asignada: status = %d", rec.Code)
	}
}

func TestEstadisticasSoloAdministrador(t *testing.T) {
	e := nuevoEntorno(t)

	if _, err := e.solicitudes.Crear(context.Background(), e.solicitante, solicitud.CrearInput{
		Nombre: "Caso", Descripcion: "Descripción del caso base",
		Tipo: solicitud.TipoSivigila, Subtipo: solicitud.SubtipoAjustes,
	}); err != nil {
		t.Fatalf("sembrando: %v", err)
	}

	rec := e.hacer(t, http.MethodGet, "/solicitudes/estadisticas", e.token(t, e.solicitante), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("estadísticas para solicitante: status = %d", rec.Code)
	}

	rec = e.hacer(t, http.MethodGet, "/solicitudes/estadisticas", e.token(t, e.admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("estadísticas: status = %d", rec.Code)
	}
	var stats map[solicitud.Estado]int
	decodificar(t, rec, &stats)
	if stats[solicitud.EstadoPendiente] != 1 {
		t.Errorf("pendientes = %d", stats[solicitud.EstadoPendiente])
	}
}

func TestListSubtiposDependeDelTipo(t *testing.T) {
	e := nuevoEntorno(t)

	rec := e.hacer(t, http.MethodGet, "/solicitudes/subtipos?tipo=sivigila", e.token(t, e.solicitante), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var subtipos []string
	decodificar(t, rec, &subtipos)
	if len(subtipos) != 6 {
		t.Errorf("subtipos de sivigila = %d", len(subtipos))
	}

	rec = e.hacer(t, http.MethodGet, "/solicitudes/subtipos?tipo=otro", e.token(t, e.solicitante), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("tipo desconocido: status = %d", rec.Code)
	}
}
