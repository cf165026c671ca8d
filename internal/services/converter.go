package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/logger"
	"github.com/coah80/mediaconv/internal/util"
)

var convertLogger = logger.Get("Convert")

const (
	MsgNoInput      = "Aucun fichier ni URL"
	MsgNoValidInput = "Aucun fichier valide à traiter."
)

// ConversionRequest is everything one POST /convert asked for.
type ConversionRequest struct {
	Format   string `validate:"required,alphanum,max=10"`
	Separate bool
	URL      string `validate:"omitempty,max=2048"`
	Files    []*multipart.FileHeader
}

type Result struct {
	ID     string
	ZipURL string
	SizeMB float64
	Path   string
}

// Converter runs a request through workspace, acquisition, conversion and
// archiving. The workspace is released on every exit path.
type Converter struct {
	workspaces *WorkspaceManager
	uploads    *UploadSaver
	downloader *Downloader
	separator  *Separator
	transcoder *Transcoder
	archiver   *Archiver
	validate   *validator.Validate
}

func NewConverter(cfg *config.Config, runner Runner) *Converter {
	return &Converter{
		workspaces: NewWorkspaceManager(cfg.UploadFolder),
		uploads:    NewUploadSaver(cfg),
		downloader: NewDownloader(runner, cfg),
		separator:  NewSeparator(runner, cfg.ToolTimeout()),
		transcoder: NewTranscoder(runner, cfg.ToolTimeout()),
		archiver:   NewArchiver(cfg.OutputFolder),
		validate:   validator.New(),
	}
}

func (c *Converter) Convert(ctx context.Context, req ConversionRequest) (*Result, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format == "" {
		req.Format = config.DefaultFormat
	}
	req.URL = strings.TrimSpace(req.URL)

	if err := CheckInput(req); err != nil {
		return nil, err
	}
	if err := c.check(req); err != nil {
		return nil, err
	}

	id, workDir, err := c.workspaces.Acquire()
	if err != nil {
		return nil, err
	}
	defer c.workspaces.Release(workDir)

	res, err := c.run(ctx, id, workDir, req)
	if err != nil {
		return nil, &JobError{ID: id, Err: err}
	}
	return res, nil
}

// CheckInput rejects a request that carries neither a URL nor any file.
func CheckInput(req ConversionRequest) error {
	if strings.TrimSpace(req.URL) == "" && len(req.Files) == 0 {
		return &NoValidInputError{Message: MsgNoInput}
	}
	return nil
}

func (c *Converter) run(ctx context.Context, id, workDir string, req ConversionRequest) (*Result, error) {
	convertLogger.Emit(logger.INFO, "[%s] Starting (format=%s separate=%t url=%t files=%d)\n",
		id, req.Format, req.Separate, req.URL != "", len(req.Files))

	var err error
	if req.URL != "" {
		err = c.downloader.Download(ctx, id, req.URL, DownloadOpts{Format: req.Format, OutputDir: workDir})
	} else {
		_, err = c.uploads.Save(id, workDir, req.Files)
	}
	if err != nil {
		return nil, err
	}

	inputs, err := listInputFiles(workDir)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, &NoValidInputError{Message: MsgNoValidInput}
	}

	source := workDir
	switch {
	case req.Separate:
		err = c.separator.Separate(ctx, id, workDir, inputs)
	case req.URL == "":
		source, err = c.transcoder.TranscodeAll(ctx, id, workDir, inputs, req.Format)
	default:
		convertLogger.Emit(logger.DEBUG, "[%s] Download already in target format, archiving as-is\n", id)
	}
	if err != nil {
		return nil, err
	}

	archive, err := c.archiver.Archive(source, id)
	if err != nil {
		return nil, err
	}

	return &Result{
		ID:     id,
		ZipURL: archive.URL,
		SizeMB: archive.SizeMB,
		Path:   archive.Path,
	}, nil
}

func (c *Converter) check(req ConversionRequest) error {
	if err := c.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &NoValidInputError{Message: fmt.Sprintf("Invalid %s", strings.ToLower(verrs[0].Field()))}
		}
		return &NoValidInputError{Message: err.Error()}
	}
	if req.URL != "" {
		if v := util.ValidateURL(req.URL); !v.Valid {
			return &NoValidInputError{Message: v.Error}
		}
	}
	return nil
}
