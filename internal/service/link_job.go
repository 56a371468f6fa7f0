package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lumenlabs/lumen-api/internal/domain"
	"github.com/lumenlabs/lumen-api/internal/linkmeta"
	"github.com/lumenlabs/lumen-api/internal/platform/gemini"
	"github.com/lumenlabs/lumen-api/internal/platform/logger"
	"github.com/lumenlabs/lumen-api/internal/platform/openaiclient"
	"github.com/lumenlabs/lumen-api/internal/platform/videoclient"
	"github.com/lumenlabs/lumen-api/internal/store"
)

// isEmptyModelResponse reports whether a summarization error means "the
// model said nothing" rather than a transport or auth failure.
func isEmptyModelResponse(err error) bool {
	return errors.Is(err, gemini.ErrEmptyResponse) || errors.Is(err, openaiclient.ErrEmptyResponse)
}

// linkResult is the payload stored on a completed link task.
type linkResult struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Title       string `json:"title,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
	Platform    string `json:"platform,omitempty"`
}

// linkJob processes one submitted URL in the background: webpage scraping
// and summarization for generic links, metadata plus audio transcription
// for video links.
type linkJob struct {
	service *TaskService
	taskID  uuid.UUID
	ownerID uuid.UUID
	url     string
	kind    domain.ContentType
	opts    LinkOptions
}

func (j *linkJob) ID() uuid.UUID { return j.taskID }
func (j *linkJob) Kind() string  { return "link" }

func (j *linkJob) Execute(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := j.service.tasks.MarkProcessing(ctx, j.taskID); err != nil {
		return fmt.Errorf("failed to mark task processing: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("link processing panicked", "panic", fmt.Sprintf("%v", rec))
			j.fail(ctx, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	var (
		result  *linkResult
		outcome store.TaskOutcome
		err     error
	)
	if j.kind == domain.ContentTypeVideo {
		result, outcome, err = j.processVideo(ctx)
	} else {
		result, outcome, err = j.processWebpage(ctx)
	}
	if err != nil {
		log.Warn("link processing failed", "error", err)
		j.fail(ctx, err.Error())
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		j.fail(ctx, "failed to encode result")
		return fmt.Errorf("failed to encode result: %w", err)
	}
	outcome.Result = payload
	if err := j.service.tasks.Complete(ctx, j.taskID, outcome); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	log.Info("link task completed", "task_id", j.taskID, "content_type", j.kind)
	return nil
}

// processWebpage checks reachability, scrapes title and body text, and
// summarizes with the owner's AI credential. A summarizer that returns an
// empty response is tolerated; transport failures are not.
func (j *linkJob) processWebpage(ctx context.Context) (*linkResult, store.TaskOutcome, error) {
	log := logger.FromContext(ctx)

	if !j.service.web.IsAccessible(ctx, j.url) {
		return nil, store.TaskOutcome{}, errors.New("link is not accessible")
	}

	title := j.service.web.PageTitle(ctx, j.url)

	text, err := j.service.web.PageText(ctx, j.url)
	if err != nil {
		return nil, store.TaskOutcome{}, fmt.Errorf("failed to read page text: %w", err)
	}

	summarizer, err := j.resolveSummarizer(ctx)
	if err != nil {
		return nil, store.TaskOutcome{}, err
	}

	summary, err := summarizer.Summarize(ctx, text)
	if err != nil {
		if !isEmptyModelResponse(err) {
			return nil, store.TaskOutcome{}, fmt.Errorf("summarization failed: %w", err)
		}
		log.Warn("summarizer returned empty response, completing without summary", "url", j.url)
		summary = ""
	}

	result := &linkResult{
		URL:         j.url,
		ContentType: string(domain.ContentTypeWebPage),
		Title:       title,
		Summary:     summary,
	}
	outcome := store.TaskOutcome{SummaryText: summary}
	return result, outcome, nil
}

// processVideo fetches metadata, downloads the audio track, transcribes it,
// and summarizes the transcript.
func (j *linkJob) processVideo(ctx context.Context) (*linkResult, store.TaskOutcome, error) {
	log := logger.FromContext(ctx)

	meta, err := j.service.video.FetchMetadata(ctx, j.url)
	if err != nil {
		return nil, store.TaskOutcome{}, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	audio, err := j.service.video.DownloadAudio(ctx, j.url)
	if err != nil {
		return nil, store.TaskOutcome{}, fmt.Errorf("failed to download audio: %w", err)
	}

	// Title and description prime the transcription model with the
	// vocabulary it is about to hear.
	transcript, err := j.service.transcriber.Transcribe(ctx, audio, videoclient.TranscribeOptions{
		Language:        j.opts.Language,
		TitleHint:       meta.Title,
		DescriptionHint: meta.Description,
	})
	if err != nil {
		return nil, store.TaskOutcome{}, fmt.Errorf("transcription failed: %w", err)
	}

	summarizer, err := j.resolveSummarizer(ctx)
	if err != nil {
		return nil, store.TaskOutcome{}, err
	}

	summary, err := summarizer.Summarize(ctx, transcript)
	if err != nil {
		if !isEmptyModelResponse(err) {
			return nil, store.TaskOutcome{}, fmt.Errorf("summarization failed: %w", err)
		}
		log.Warn("summarizer returned empty response, completing without summary", "url", j.url)
		summary = ""
	}

	result := &linkResult{
		URL:         j.url,
		ContentType: string(domain.ContentTypeVideo),
		Title:       meta.Title,
		Summary:     summary,
		Transcript:  transcript,
		Platform:    string(linkmeta.DetectPlatform(j.url)),
	}
	outcome := store.TaskOutcome{
		VideoTitle:        meta.Title,
		VideoDescription:  meta.Description,
		VideoDuration:     meta.Duration,
		TranscriptionText: transcript,
		SummaryText:       summary,
	}
	return result, outcome, nil
}

// resolveSummarizer picks the owner's AI credential, preferring an OpenAI
// token over a Gemini one, and builds the matching summarizer.
func (j *linkJob) resolveSummarizer(ctx context.Context) (Summarizer, error) {
	for _, provider := range []string{"openai", "gemini"} {
		key, err := j.service.credentials.DecryptedToken(ctx, j.ownerID, provider)
		if err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to resolve %s credential: %w", provider, err)
		}
		summarizer, err := j.service.summarizers(ctx, provider, key)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s summarizer: %w", provider, err)
		}
		return summarizer, nil
	}
	return nil, ErrNoCredential
}

func (j *linkJob) fail(ctx context.Context, message string) {
	if err := j.service.tasks.Fail(ctx, j.taskID, message); err != nil {
		logger.FromContext(ctx).Error("failed to mark task failed", "task_id", j.taskID, "error", err)
	}
}
