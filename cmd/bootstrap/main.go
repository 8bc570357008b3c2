// Comando bootstrap crea la cuenta del primer administrador directamente en
// el almacén de documentos, sin pasar por el flujo de verificación de correo.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sivigila/solicitudes/internal/auth"
	"github.com/sivigila/solicitudes/internal/docstore"
	"github.com/sivigila/solicitudes/internal/identidad"
	"github.com/sivigila/solicitudes/internal/usuario"
	"github.com/sivigila/solicitudes/internal/util"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	email := flag.String("email", "", "correo del administrador")
	password := flag.String("password", "", "contraseña inicial")
	nombre := flag.String("nombre", "Administrador", "nombre visible del perfil")
	flag.Parse()

	if err := util.ValidateEmail(*email); err != nil {
		log.Fatal().Err(err).Msg("email inválido")
	}
	if err := util.ValidatePassword(*password); err != nil {
		log.Fatal().Err(err).Msg("contraseña inválida")
	}

	_ = godotenv.Load()

	uri := strings.TrimSpace(os.Getenv("MONGO_URI"))
	if uri == "" {
		log.Fatal().Msg("defina MONGO_URI")
	}
	database := strings.TrimSpace(os.Getenv("MONGO_DB"))
	if database == "" {
		database = "solicitudes"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, db, err := docstore.ConnectMongo(ctx, uri, database)
	if err != nil {
		log.Fatal().Err(err).Msg("no fue posible conectar a mongo")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	store := docstore.NewMongoStore(db)
	identidades := identidad.NewRepository(store)
	perfiles := usuario.NewRepository(store)

	correo := strings.ToLower(strings.TrimSpace(*email))
	if _, err := identidades.FindByEmail(ctx, correo); err == nil {
		log.Fatal().Str("email", correo).Msg("la cuenta ya existe")
	}

	hash, err := auth.Hash(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("no fue posible hashear la contraseña")
	}

	uid := util.NewID()
	id := identidad.Identidad{
		UID:        uid,
		Email:      correo,
		Hash:       hash,
		Verificada: true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := identidades.Append(ctx, id); err != nil {
		log.Fatal().Err(err).Msg("no fue posible registrar la identidad")
	}

	perfil := usuario.Usuario{
		UID:       uid,
		Nombre:    strings.TrimSpace(*nombre),
		Email:     correo,
		Rol:       usuario.RolAdministrador,
		Estado:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := perfiles.Append(ctx, perfil); err != nil {
		log.Fatal().Err(err).Msg("no fue posible registrar el perfil")
	}

	log.Info().Str("uid", uid).Str("email", correo).Msg("administrador creado")
}
