package ai

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MeetingInput is a recorded meeting waiting to be processed
type MeetingInput struct {
	Title      string
	Duration   int // Seconds
	Transcript string
	Audio      io.Reader
	AudioMIME  string
	AudioRef   string
	Tasks      []*models.Task
}

// MeetingService turns recordings into meetings with task proposals
type MeetingService struct {
	transcriber Transcriber
	analyzer    MeetingAnalyzer
	now         func() time.Time
	logger      *zap.Logger
}

// NewMeetingService creates a meeting service. Nil collaborators fall back to the
// unavailable transcriber and the no-op analyzer.
func NewMeetingService(transcriber Transcriber, analyzer MeetingAnalyzer, logger *zap.Logger) *MeetingService {
	if transcriber == nil {
		transcriber = UnavailableTranscriber{}
	}
	if analyzer == nil {
		analyzer = NoopAnalyzer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{
		transcriber: transcriber,
		analyzer:    analyzer,
		now:         time.Now,
		logger:      logger,
	}
}

// Process transcribes the audio when no transcript was supplied, analyzes the transcript,
// and returns the meeting. Proposals are pending and may still reference unknown tasks.
func (s *MeetingService) Process(ctx context.Context, in MeetingInput) (*models.Meeting, error) {
	transcript := strings.TrimSpace(in.Transcript)
	if transcript == "" && in.Audio != nil {
		text, err := s.transcriber.Transcribe(ctx, in.Audio, in.AudioMIME)
		if err != nil {
			return nil, fmt.Errorf("failed to transcribe audio: %w", err)
		}
		transcript = strings.TrimSpace(text)
	}
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}

	now := s.now()
	meeting := &models.Meeting{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Date:          now,
		Duration:      max(in.Duration, 0),
		Transcript:    transcript,
		TaskProposals: []*models.TaskProposal{},
		AudioRef:      in.AudioRef,
	}
	if meeting.Title == "" {
		meeting.Title = "Meeting " + now.UTC().Format("2006-01-02 15:04")
	}

	analysis, err := s.analyzer.AnalyzeMeeting(ctx, AnalysisRequest{
		Title:      meeting.Title,
		Transcript: transcript,
		Tasks:      summarizeTasks(in.Tasks),
		Now:        now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze meeting: %w", err)
	}

	meeting.Summary = analysis.Summary
	for _, sug := range analysis.Suggestions {
		p, ok := toProposal(sug, meeting.ID, now)
		if !ok {
			s.logger.Debug("proposal_discarded",
				zap.String("meeting_id", meeting.ID),
				zap.String("task_id", sug.TaskID),
			)
			continue
		}
		meeting.TaskProposals = append(meeting.TaskProposals, p)
	}

	s.logger.Info("meeting_processed",
		zap.String("meeting_id", meeting.ID),
		zap.Int("transcript_length", len(transcript)),
		zap.Int("proposals", len(meeting.TaskProposals)),
	)
	return meeting, nil
}

func summarizeTasks(tasks []*models.Task) []TaskSummary {
	out := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskSummary{
			ID:       t.ID,
			Name:     t.Name,
			Status:   string(t.Status),
			Progress: t.Progress,
			EndDate:  t.EndDate,
			Assignee: t.Assignee,
		})
	}
	return out
}

// toProposal validates a suggestion. Invalid fields are dropped; a suggestion
// left with no fields is discarded.
func toProposal(s Suggestion, meetingID string, now time.Time) (*models.TaskProposal, bool) {
	if strings.TrimSpace(s.TaskID) == "" {
		return nil, false
	}
	p := &models.TaskProposal{
		ID:         uuid.NewString(),
		TaskID:     strings.TrimSpace(s.TaskID),
		Reason:     strings.TrimSpace(s.Reason),
		Confidence: min(max(s.Confidence, 0), 1),
		MeetingID:  meetingID,
		Timestamp:  now,
		State:      models.ProposalStatePending,
	}
	for _, status := range models.AllTaskStatuses() {
		if strings.EqualFold(s.ProposedStatus, string(status)) {
			st := status
			p.ProposedStatus = &st
			break
		}
	}
	if s.ProposedProgress != nil && *s.ProposedProgress >= 0 && *s.ProposedProgress <= 100 {
		v := *s.ProposedProgress
		p.ProposedProgress = &v
	}
	if s.ProposedEndDate != "" {
		if d, err := time.Parse(models.DateLayout, s.ProposedEndDate); err == nil {
			p.ProposedEndDate = &d
		}
	}
	return p, p.HasChanges()
}
