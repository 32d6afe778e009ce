package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/auth"
	"github.com/gestaozabele/zeladoria/internal/config"
	"github.com/gestaozabele/zeladoria/internal/db"
	"github.com/gestaozabele/zeladoria/internal/guard"
	"github.com/gestaozabele/zeladoria/internal/registry"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	cmd := os.Args[1]
	args := os.Args[2:]

	if err := dispatch(ctx, pool, cmd, args); err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("comando falhou")
		pool.Close()
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, pool *pgxpool.Pool, cmd string, args []string) error {
	costs, err := config.LoadPasswordHash()
	if err != nil {
		return err
	}
	hasher, err := auth.NewPasswordHasher(auth.PasswordParams(costs))
	if err != nil {
		return err
	}
	reg := registry.NewService(registry.NewPGStore(pool), registry.WithHasher(hasher.Hash))

	switch cmd {
	case "migrate":
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
		log.Info().Msg("migrações aplicadas")
		return nil
	case "bootstrap-admin":
		return runBootstrap(ctx, reg, args)
	case "zone-create":
		return runZoneCreate(ctx, reg, args)
	case "zone-list":
		zones, err := reg.ListZones(ctx)
		if err != nil {
			return err
		}
		return printJSON(zones)
	case "problem-type-create":
		return runProblemTypeCreate(ctx, reg, args)
	case "problem-type-list":
		types, err := reg.ListProblemTypes(ctx)
		if err != nil {
			return err
		}
		return printJSON(types)
	case "check":
		return runCheck(ctx, guard.NewService(guard.NewPGStore(pool), nil), args)
	default:
		usage()
		return fmt.Errorf("comando desconhecido: %s", cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "zeladoria CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  zeladoria migrate")
	fmt.Fprintln(os.Stderr, "  zeladoria bootstrap-admin --name \"Fulana\" --email admin@prefeitura.gov --password ...")
	fmt.Fprintln(os.Stderr, "  zeladoria zone-create --actor <staff-id> --name Centro --number 1 --council \"Junta Centro\" [--population 1000 --area 2.5]")
	fmt.Fprintln(os.Stderr, "  zeladoria zone-list")
	fmt.Fprintln(os.Stderr, "  zeladoria problem-type-create --actor <staff-id> --name \"Iluminação\" --department Energia")
	fmt.Fprintln(os.Stderr, "  zeladoria problem-type-list")
	fmt.Fprintln(os.Stderr, "  zeladoria check --entity zone --id <id>")
}

func runBootstrap(ctx context.Context, reg *registry.Service, args []string) error {
	fs := flag.NewFlagSet("bootstrap-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		name     = fs.String("name", "", "nome do administrador")
		email    = fs.String("email", "", "e-mail do administrador")
		password = fs.String("password", "", "senha inicial")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := reg.BootstrapAdministrator(ctx, registry.Credentials{Name: *name, Email: *email, Password: *password})
	if err != nil {
		return err
	}
	return printJSON(st)
}

func runZoneCreate(ctx context.Context, reg *registry.Service, args []string) error {
	fs := flag.NewFlagSet("zone-create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		actorID    = fs.String("actor", "", "id do administrador responsável")
		name       = fs.String("name", "", "nome da zona")
		number     = fs.Int("number", 0, "número da zona")
		population = fs.Int("population", 0, "população estimada")
		area       = fs.Float64("area", 0, "área em km²")
		council    = fs.String("council", "", "nome da junta principal")
		phone      = fs.String("council-phone", "", "telefone da junta")
		email      = fs.String("council-email", "", "e-mail da junta")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := staffActor(*actorID)
	if err != nil {
		return err
	}

	z, err := reg.CreateZone(ctx, a, registry.ZoneInput{
		Name:       *name,
		Number:     *number,
		Population: *population,
		AreaKm2:    *area,
		Council:    &registry.CouncilInput{Name: *council, Phone: *phone, Email: *email},
	})
	if err != nil {
		return err
	}
	return printJSON(z)
}

func runProblemTypeCreate(ctx context.Context, reg *registry.Service, args []string) error {
	fs := flag.NewFlagSet("problem-type-create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		actorID    = fs.String("actor", "", "id do administrador responsável")
		name       = fs.String("name", "", "nome do tipo de problema")
		department = fs.String("department", "", "departamento responsável")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := staffActor(*actorID)
	if err != nil {
		return err
	}

	pt, err := reg.CreateProblemType(ctx, a, registry.ProblemTypeInput{Name: *name, Department: *department})
	if err != nil {
		return err
	}
	return printJSON(pt)
}

func runCheck(ctx context.Context, g *guard.Service, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		entity = fs.String("entity", "", "zone, council, leader, staff, problem_type ou citizen")
		rawID  = fs.String("id", "", "id da entidade")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := guard.ParseEntity(*entity)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(*rawID)
	if err != nil {
		return errors.New("id inválido")
	}

	check, err := g.CanDeactivate(ctx, e, id)
	if err != nil {
		return err
	}
	return printJSON(check)
}

func staffActor(raw string) (actor.Actor, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return actor.Actor{}, errors.New("--actor deve ser o id de um administrador")
	}
	return actor.Actor{ID: id, Kind: actor.KindStaff}, nil
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}
