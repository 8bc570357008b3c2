package solicitud

import "strings"

// PorPaginaDefault es el tamaño fijo de página de los listados.
const PorPaginaDefault = 10

// Filtro describe los criterios de búsqueda sobre la lista en memoria.
// Los filtros por faceta se combinan con AND; el texto libre se compara en
// minúsculas contra todos los campos de tipo cadena del registro.
type Filtro struct {
	Texto   string
	Estado  Estado
	Tipo    Tipo
	Subtipo string
	Pagina  int
	PorPag  int
}

// Pagina es una porción paginada del resultado filtrado.
type Pagina struct {
	Items   []Solicitud `json:"items"`
	Total   int         `json:"total"`
	Pagina  int         `json:"page"`
	Paginas int         `json:"pages"`
}

// Filtrar aplica primero el alcance de visibilidad del actor, después los
// filtros controlados por el usuario y por último el corte de paginación.
// El alcance por rol es incondicional: ningún filtro puede ampliarlo.
func Filtrar(items []Solicitud, visible func(Solicitud) bool, f Filtro) Pagina {
	texto := strings.ToLower(strings.TrimSpace(f.Texto))

	var filtradas []Solicitud
	for _, s := range items {
		if visible != nil && !visible(s) {
			continue
		}
		if f.Estado != "" && s.Estado != f.Estado {
			continue
		}
		if f.Tipo != "" && s.Tipo != f.Tipo {
			continue
		}
		if f.Subtipo != "" && s.Subtipo != f.Subtipo {
			continue
		}
		if texto != "" && !coincideTexto(s, texto) {
			continue
		}
		filtradas = append(filtradas, s)
	}

	porPag := f.PorPag
	if porPag <= 0 {
		porPag = PorPaginaDefault
	}
	pagina := f.Pagina
	if pagina <= 0 {
		pagina = 1
	}

	total := len(filtradas)
	paginas := (total + porPag - 1) / porPag
	if paginas == 0 {
		paginas = 1
	}

	desde := (pagina - 1) * porPag
	if desde >= total {
		return Pagina{Items: nil, Total: total, Pagina: pagina, Paginas: paginas}
	}
	hasta := desde + porPag
	if hasta > total {
		hasta = total
	}

	return Pagina{Items: filtradas[desde:hasta], Total: total, Pagina: pagina, Paginas: paginas}
}

// coincideTexto busca la subcadena en cada campo de tipo cadena del
// registro, incluyendo nombre y correo del solicitante y del operario, sin
// distinguir mayúsculas.
func coincideTexto(s Solicitud, texto string) bool {
	campos := []string{
		s.UID,
		s.Nombre,
		s.Descripcion,
		string(s.Tipo),
		s.Subtipo,
		string(s.Estado),
		s.Respuesta,
		s.Usuario.Nombre,
		s.Usuario.Email,
	}
	if s.Operario != nil {
		campos = append(campos, s.Operario.Nombre, s.Operario.Email)
	}
	for _, campo := range campos {
		if strings.Contains(strings.ToLower(campo), texto) {
			return true
		}
	}
	return false
}
