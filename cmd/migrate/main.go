package main

import (
	"database/sql"
	"flag"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jhoicas/almacen-api/pkg/config"
	"github.com/jhoicas/almacen-api/pkg/logger"
)

// Runner de migraciones goose: go run ./cmd/migrate -cmd up
func main() {
	cmd := flag.String("cmd", "up", "comando: up|down|status")
	dir := flag.String("dir", "migrations", "directorio de migraciones")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	db, err := sql.Open("pgx", cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir conexión a PostgreSQL")
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("configurar dialecto goose")
	}

	log.Info().Str("cmd", *cmd).Str("dir", *dir).Msg("ejecutando migraciones")

	switch *cmd {
	case "up":
		err = goose.Up(db, *dir)
	case "down":
		err = goose.Down(db, *dir)
	case "status":
		err = goose.Status(db, *dir)
	default:
		log.Fatal().Str("cmd", *cmd).Msg("comando desconocido (up|down|status)")
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", *cmd).Msg("migración falló")
	}

	log.Info().Msg("migraciones al día")
}
