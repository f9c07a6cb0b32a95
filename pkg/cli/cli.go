package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/mali1sav/music/pkg/cmd/batch"
	"github.com/mali1sav/music/pkg/cmd/cover"
	"github.com/mali1sav/music/pkg/cmd/fetch"
	"github.com/mali1sav/music/pkg/cmd/generate"
	"github.com/mali1sav/music/pkg/cmd/history"
	lyricscmd "github.com/mali1sav/music/pkg/cmd/lyrics"
	"github.com/mali1sav/music/pkg/cmd/migrate"
	"github.com/mali1sav/music/pkg/cmd/upload"
	"github.com/mali1sav/music/pkg/cmd/web"
	"github.com/peterbourgon/ff/ffyaml"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func New(version, commit, date string) *ffcli.Command {
	fs := flag.NewFlagSet("music", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "music [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(version, commit, date),
			newFetchCommand(),
			newUploadCommand(),
			newGenerateCommand(),
			newCoverCommand(),
			newBatchCommand(),
			newLyricsCommand(),
			newWebCommand(),
			newMigrateCommand(),
			newHistoryCommand(),
		},
	}
}

func options() []ff.Option {
	return []ff.Option{
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parser),
		ff.WithEnvVarPrefix("MUSIC"),
	}
}

func newVersionCommand(version, commit, date string) *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "music version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

func newFetchCommand() *ffcli.Command {
	cmd := "fetch"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &fetch.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Bin, "bin", "", "yt-dlp binary (default: yt-dlp in PATH)")
	fs.StringVar(&cfg.Dir, "dir", "", "download folder")
	fs.StringVar(&cfg.URL, "url", "", "video url")
	fs.StringVar(&cfg.Purpose, "purpose", "audio", "purpose tag used in the output filename")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("music %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "download the audio track of a video url",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return fetch.Run(ctx, cfg)
		},
	}
}

func newUploadCommand() *ffcli.Command {
	cmd := "upload"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &upload.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "api-key", "", "minimax api key")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.File, "file", "", "audio file to upload")
	fs.StringVar(&cfg.Purpose, "purpose", "voice", "purpose tag (voice, song)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("music %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "upload an audio file and obtain a reference id",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return upload.Run(ctx, cfg)
		},
	}
}

func newGenerateCommand() *ffcli.Command {
	cmd := "generate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &generate.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "api-key", "", "minimax api key")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.FSType, "fs-type", "", "file storage type (local, s3)")
	fs.StringVar(&cfg.FSConn, "fs-conn", "", "file storage connection string")
	fs.StringVar(&cfg.VoiceID, "voice-id", "", "voice reference id")
	fs.StringVar(&cfg.InstrumentalID, "instrumental-id", "", "instrumental reference id")
	fs.StringVar(&cfg.Lyrics, "lyrics", "", "lyrics text")
	fs.StringVar(&cfg.Input, "input", "", "lyrics file")
	fs.StringVar(&cfg.Model, "model", "", "generation model (default music-01)")
	fs.StringVar(&cfg.Format, "format", "mp3", "output format (mp3, wav)")
	fs.StringVar(&cfg.Presets, "presets", "", "audio setting presets file (yaml)")
	fs.StringVar(&cfg.Preset, "preset", "", "audio setting preset name")
	fs.StringVar(&cfg.Output, "output", "", "output file (default: temp file)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("music %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "generate a cover from previously uploaded references",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return generate.Run(ctx, cfg)
		},
	}
}

func newCoverCommand() *ffcli.Command {
	cmd := "cover"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &cover.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "api-key", "", "minimax api key")
	fs.StringVar(&cfg.Bin, "bin", "", "yt-dlp binary (default: yt-dlp in PATH)")
	fs.StringVar(&cfg.Dir, "dir", "", "download folder")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.FSType, "fs-type", "", "file storage type (local, s3)")
	fs.StringVar(&cfg.FSConn, "fs-conn", "", "file storage connection string")
	fs.StringVar(&cfg.VoiceURL, "voice-url", "", "youtube url for the original vocals")
	fs.StringVar(&cfg.InstrumentalURL, "instrumental-url", "", "youtube url for the instrumental")
	fs.StringVar(&cfg.VoiceID, "voice-id", "", "previously assigned voice id")
	fs.StringVar(&cfg.InstrumentalID, "instrumental-id", "", "previously assigned instrumental id")
	fs.StringVar(&cfg.Lyrics, "lyrics", "", "lyrics text")
	fs.StringVar(&cfg.Input, "input", "", "lyrics file")
	fs.StringVar(&cfg.Prompt, "prompt", "", "prompt to draft lyrics when none are given")
	fs.StringVar(&cfg.OpenAIToken, "openai-key", "", "openai api key")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", "", "openai chat model")
	fs.StringVar(&cfg.Model, "model", "", "generation model (default music-01)")
	fs.StringVar(&cfg.Format, "format", "mp3", "output format (mp3, wav)")
	fs.StringVar(&cfg.Output, "output", "", "output file (default: temp file)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("music %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "run the whole cover chain in one go",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return cover.Run(ctx, cfg)
		},
	}
}

func newBatchCommand() *ffcli.Command {
	cmd := "batch"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &batch.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "api-key", "", "minimax api key")
	fs.StringVar(&cfg.Bin, "bin", "", "yt-dlp binary (default: yt-dlp in PATH)")
	fs.StringVar(&cfg.Dir, "dir", "", "download folder")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.FSType, "fs-type", "", "file storage type (local, s3)")
	fs.StringVar(&cfg.FSConn, "fs-conn", "", "file storage connection string")
	fs.StringVar(&cfg.Input, "input", "", "jobs file (csv or json)")
	fs.StringVar(&cfg.Output, "output", "", "output folder")
	fs.IntVar(&cfg.Limit, "limit", 0, "max jobs to process (0: no limit)")
	fs.StringVar(&cfg.Format, "format", "mp3", "output format (mp3, wav)")
	fs.StringVar(&cfg.Model, "model", "", "generation model (default music-01)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("music %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "process cover jobs from a csv or json file",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return batch.Run(ctx, cfg)
		},
	}
}

func newLyricsCommand() *ffcli.Command {
	cmd := "lyrics"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &lyricscmd.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "openai-key", "", "openai api key")
	fs.StringVar(&cfg.Model, "openai-model", "", "openai chat model")
	fs.StringVar(&cfg.Prompt, "prompt", "", "prompt describing the song")
	fs.StringVar(&cfg.Output, "output", "", "output file (default: stdout)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("music %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "draft song lyrics from a prompt",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return lyricscmd.Run(ctx, cfg)
		},
	}
}

func newWebCommand() *ffcli.Command {
	cmd := "web"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &web.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Token, "api-key", "", "minimax api key")
	fs.StringVar(&cfg.Bin, "bin", "", "yt-dlp binary (default: yt-dlp in PATH)")
	fs.StringVar(&cfg.Dir, "dir", "", "download folder")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.FSType, "fs-type", "", "file storage type (local, s3)")
	fs.StringVar(&cfg.FSConn, "fs-conn", "", "file storage connection string")
	fs.StringVar(&cfg.OpenAIToken, "openai-key", "", "openai api key (enables lyric suggestions)")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", "", "openai chat model")
	fs.StringVar(&cfg.Addr, "addr", "localhost:1337", "address where the server will be listening")
	fs.BoolVar(&cfg.Open, "open", false, "open the wizard in the browser")
	fsMapVar(fs, &cfg.Credentials, "credentials", nil, "basic auth credentials (semicolon separated) Example: user1:pass1;user2:pass2")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("music %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "launch the 3-step wizard web service",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return web.Serve(ctx, cfg)
		},
	}
}

func newMigrateCommand() *ffcli.Command {
	cmd := "migrate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &migrate.Config{}
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("music %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "migrate the database schema",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return migrate.Run(ctx, cfg)
		},
	}
}

func newHistoryCommand() *ffcli.Command {
	cmd := "history"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &history.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.Kind, "kind", "generations", "record kind (uploads, generations)")
	fs.IntVar(&cfg.Page, "page", 1, "page")
	fs.IntVar(&cfg.Size, "size", 100, "page size")
	fs.StringVar(&cfg.Output, "output", "", "export csv file (default: print)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("music %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "list recorded uploads and generations",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return history.Run(ctx, cfg)
		},
	}
}

type mapValue struct {
	v *map[string]string
}

func (m *mapValue) String() string {
	if m.v == nil {
		return ""
	}
	return fmt.Sprintf("%v", map[string]string(*m.v))
}

func (m *mapValue) Set(value string) error {
	if m.v == nil {
		return errors.New("nil map reference")
	}
	pairs := strings.Split(value, ";")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid map entry: %s", pair)
		}
		(*m.v)[parts[0]] = parts[1]
	}
	return nil
}

func fsMapVar(fs *flag.FlagSet, p *map[string]string, name string, value map[string]string, usage string) {
	if value == nil {
		value = make(map[string]string)
	}
	*p = value
	fs.Var(&mapValue{p}, name, usage)
}
