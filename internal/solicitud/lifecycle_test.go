package solicitud

import (
	"errors"
	"testing"
	"time"

	"github.com/sivigila/solicitudes/internal/usuario"
	"github.com/sivigila/solicitudes/internal/util"
)

var (
	solicitante = usuario.Usuario{UID: "u-sol", Nombre: "Solicitante", Rol: usuario.RolSolicitante}
	referente   = usuario.Usuario{UID: "u-ref", Nombre: "Referente", Rol: usuario.RolReferente}
	admin       = usuario.Usuario{UID: "u-adm", Nombre: "Admin", Rol: usuario.RolAdministrador}
)

func entradaValida() CrearInput {
	return CrearInput{
		Nombre:      "Caso UPGD",
		Descripcion: "Se requiere visita para instalación del aplicativo",
		Tipo:        TipoSivigila,
		Subtipo:     SubtipoInstalacion,
	}
}

func TestNuevaQuedaPendienteConCreatedAt(t *testing.T) {
	ahora := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	s, err := Nueva(solicitante, entradaValida(), ahora)
	if err != nil {
		t.Fatalf("Nueva: %v", err)
	}

	if s.Estado != EstadoPendiente {
		t.Errorf("estado = %q, esperaba pendiente", s.Estado)
	}
	if s.UID == "" {
		t.Error("la solicitud debe tener uid generado")
	}
	if !s.CreatedAt.Equal(ahora) {
		t.Errorf("createdAt = %v, esperaba %v", s.CreatedAt, ahora)
	}
	if s.Operario != nil || s.AssignedAt != nil || s.AnswerAt != nil || s.Respuesta != "" {
		t.Error("una solicitud nueva no debe traer operario ni respuesta")
	}
	if s.Usuario.UID != solicitante.UID {
		t.Errorf("snapshot de solicitante = %q, esperaba %q", s.Usuario.UID, solicitante.UID)
	}
	if err := s.VerificarInvariantes(); err != nil {
		t.Errorf("invariantes: %v", err)
	}
}

func TestNuevaValidaCampos(t *testing.T) {
	casos := []struct {
		nombre string
		mutar  func(*CrearInput)
		campo  string
	}{
		{"nombre corto", func(in *CrearInput) { in.Nombre = "x" }, "name"},
		{"descripcion corta", func(in *CrearInput) { in.Descripcion = "breve" }, "description"},
		{"tipo desconocido", func(in *CrearInput) { in.Tipo = "otro" }, "type"},
		{"subtipo ajeno al tipo", func(in *CrearInput) { in.Subtipo = "Visita" }, "subtype"},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			in := entradaValida()
			c.mutar(&in)

			_, err := Nueva(solicitante, in, time.Now())
			var verr *util.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("esperaba ValidationError, obtuve %v", err)
			}
			if verr.Campo != c.campo {
				t.Errorf("campo = %q, esperaba %q", verr.Campo, c.campo)
			}
		})
	}
}

func TestAsignarPasaAAsignadaYEstampaAssignedAt(t *testing.T) {
	ahora := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s, _ := Nueva(solicitante, entradaValida(), ahora)

	despues := ahora.Add(2 * time.Hour)
	asignada, err := s.Asignar(referente, despues)
	if err != nil {
		t.Fatalf("Asignar: %v", err)
	}

	if asignada.Estado != EstadoAsignada {
		t.Errorf("estado = %q, esperaba asignada", asignada.Estado)
	}
	if asignada.Operario == nil || asignada.Operario.UID != referente.UID {
		t.Error("el operario asignado debe quedar registrado")
	}
	if asignada.AssignedAt == nil || !asignada.AssignedAt.Equal(despues) {
		t.Errorf("assignedAt = %v, esperaba %v", asignada.AssignedAt, despues)
	}
	if err := asignada.VerificarInvariantes(); err != nil {
		t.Errorf("invariantes: %v", err)
	}
}

func TestReasignarReestampaAssignedAt(t *testing.T) {
	ahora := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s, _ := Nueva(solicitante, entradaValida(), ahora)

	primera, _ := s.Asignar(referente, ahora.Add(time.Hour))
	otro := usuario.Usuario{UID: "u-ref-2", Rol: usuario.RolReferente}
	segunda, err := primera.Asignar(otro, ahora.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("reasignación: %v", err)
	}

	if segunda.Operario.UID != otro.UID {
		t.Errorf("operario = %q, esperaba %q", segunda.Operario.UID, otro.UID)
	}
	if !segunda.AssignedAt.Equal(ahora.Add(3 * time.Hour)) {
		t.Errorf("assignedAt debe re-estamparse en cada asignación, obtuve %v", segunda.AssignedAt)
	}
}

func TestAsignarRechazaOperarioNoReferente(t *testing.T) {
	s, _ := Nueva(solicitante, entradaValida(), time.Now())

	for _, u := range []usuario.Usuario{solicitante, admin} {
		if _, err := s.Asignar(u, time.Now()); !errors.Is(err, ErrOperarioNoElegible) {
			t.Errorf("Asignar(%s): esperaba ErrOperarioNoElegible, obtuve %v", u.Rol, err)
		}
	}
}

func TestResponderFinalizaYEstampaAnswerAt(t *testing.T) {
	ahora := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s, _ := Nueva(solicitante, entradaValida(), ahora)
	asignada, _ := s.Asignar(referente, ahora.Add(time.Hour))

	cierre := ahora.Add(4 * time.Hour)
	final, err := asignada.Responder(referente, "Instalación realizada en sitio", cierre)
	if err != nil {
		t.Fatalf("Responder: %v", err)
	}

	if final.Estado != EstadoFinalizada || !final.Terminada() {
		t.Errorf("estado = %q, esperaba finalizada", final.Estado)
	}
	if final.Respuesta == "" || final.AnswerAt == nil || !final.AnswerAt.Equal(cierre) {
		t.Errorf("respuesta/answerAt incompletos: %q %v", final.Respuesta, final.AnswerAt)
	}
	if final.Operario.UID != referente.UID {
		t.Error("el operario asignado no debe cambiar cuando responde él mismo")
	}
	if err := final.VerificarInvariantes(); err != nil {
		t.Errorf("invariantes: %v", err)
	}
}

func TestResponderAtajoDeAdministradorRegistraAlAdmin(t *testing.T) {
	ahora := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s, _ := Nueva(solicitante, entradaValida(), ahora)

	// respuesta directa desde pendiente, sin asignación previa
	final, err := s.Responder(admin, "Resuelto por mesa de ayuda", ahora.Add(time.Hour))
	if err != nil {
		t.Fatalf("Responder: %v", err)
	}

	if final.Operario == nil || final.Operario.UID != admin.UID {
		t.Error("el administrador que responde debe quedar como operario de registro")
	}
	if final.AssignedAt == nil {
		t.Error("assignedAt debe estamparse junto con el operario de registro")
	}
	if err := final.VerificarInvariantes(); err != nil {
		t.Errorf("invariantes: %v", err)
	}
}

func TestResponderExigeRespuestaNoVacia(t *testing.T) {
	s, _ := Nueva(solicitante, entradaValida(), time.Now())
	asignada, _ := s.Asignar(referente, time.Now())

	_, err := asignada.Responder(referente, "   ", time.Now())
	var verr *util.ValidationError
	if !errors.As(err, &verr) || verr.Campo != "answer" {
		t.Fatalf("esperaba ValidationError en answer, obtuve %v", err)
	}
}

func TestFinalizadaEsTerminal(t *testing.T) {
	ahora := time.Now().UTC()
	s, _ := Nueva(solicitante, entradaValida(), ahora)
	asignada, _ := s.Asignar(referente, ahora)
	final, _ := asignada.Responder(referente, "Atendido y cerrado", ahora)

	if _, err := final.Asignar(referente, ahora); !errors.Is(err, ErrTransicionInvalida) {
		t.Errorf("Asignar sobre finalizada: esperaba ErrTransicionInvalida, obtuve %v", err)
	}
	if _, err := final.Responder(referente, "otra vez", ahora); !errors.Is(err, ErrTransicionInvalida) {
		t.Errorf("Responder sobre finalizada: esperaba ErrTransicionInvalida, obtuve %v", err)
	}
	if _, err := final.Editar(EditarInput{Nombre: "Nuevo", Descripcion: "Descripción larga x", Tipo: TipoSivigila, Subtipo: SubtipoAjustes}); !errors.Is(err, ErrTransicionInvalida) {
		t.Errorf("Editar sobre finalizada: esperaba ErrTransicionInvalida, obtuve %v", err)
	}
}

func TestEditarSoloPendienteYRevalidaSubtipo(t *testing.T) {
	s, _ := Nueva(solicitante, entradaValida(), time.Now())

	editada, err := s.Editar(EditarInput{
		Nombre:      "Caso UPGD ajustado",
		Descripcion: "Se requiere actualización del aplicativo en la sede",
		Tipo:        TipoSivigila,
		Subtipo:     SubtipoActualizacion,
	})
	if err != nil {
		t.Fatalf("Editar: %v", err)
	}
	if editada.Subtipo != SubtipoActualizacion {
		t.Errorf("subtipo = %q, esperaba %q", editada.Subtipo, SubtipoActualizacion)
	}

	asignada, _ := s.Asignar(referente, time.Now())
	if _, err := asignada.Editar(EditarInput{Nombre: "Otro", Descripcion: "Descripción larga x", Tipo: TipoSivigila, Subtipo: SubtipoAjustes}); !errors.Is(err, ErrTransicionInvalida) {
		t.Errorf("Editar sobre asignada: esperaba ErrTransicionInvalida, obtuve %v", err)
	}
}

func TestSubtiposDeDependeDelTipo(t *testing.T) {
	subtipos := SubtiposDe(TipoSivigila)
	if len(subtipos) != 6 {
		t.Fatalf("esperaba 6 subtipos de sivigila, obtuve %d", len(subtipos))
	}
	if SubtiposDe("otro") != nil {
		t.Error("un tipo desconocido no tiene subtipos")
	}
	if err := ValidarSubtipo(TipoSivigila, SubtipoBAI); err != nil {
		t.Errorf("BAI debe ser válido para sivigila: %v", err)
	}
}
