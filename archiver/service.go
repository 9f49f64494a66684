package archiver

import (
	"context"
	"fmt"
)

// Status is the status reported to callers of ClassifyAndMaybeSubmit.
type Status string

const (
	StatusError     Status = "error"
	StatusDuplicate Status = "duplicate"
	StatusUnhidden  Status = "unhidden"
	StatusSuccess   Status = "success"
)

// Reason qualifies a StatusError response.
type Reason string

const (
	ReasonInvalidURL  Reason = "invalid_url"
	ReasonRateLimited Reason = "rate_limited"
	ReasonInProgress  Reason = "in_progress"
)

// Response is the result of ClassifyAndMaybeSubmit.
type Response struct {
	Status     Status `json:"status"`
	Reason     Reason `json:"reason,omitempty"`
	ArchiveURL string `json:"internet_archive_url,omitempty"`
}

// Service classifies incoming URLs and submits the ones that need it.
type Service struct {
	classifier *Classifier
	submitter  *Submitter
}

func NewService(classifier *Classifier, submitter *Submitter) *Service {
	return &Service{classifier: classifier, submitter: submitter}
}

// ClassifyAndMaybeSubmit runs the classifier on rawURL and, when the URL needs
// submission, the submission workflow. Provider failures are returned wrapped
// in ErrProvider; store failures are returned as is.
func (s *Service) ClassifyAndMaybeSubmit(ctx context.Context, rawURL string) (Response, error) {
	cl, err := s.classifier.Classify(ctx, rawURL)
	if err != nil {
		return Response{}, err
	}

	switch cl.Verdict {
	case VerdictInvalid:
		return Response{Status: StatusError, Reason: ReasonInvalidURL}, nil
	case VerdictDuplicate:
		return Response{Status: StatusDuplicate}, nil
	case VerdictUnhidden:
		return Response{Status: StatusUnhidden}, nil
	case VerdictNeedsSubmission:
	default:
		return Response{}, fmt.Errorf("unknown verdict %s", cl.Verdict)
	}

	res, err := s.submitter.Submit(ctx, rawURL)
	if err != nil {
		return Response{}, err
	}

	switch res.Kind {
	case ResultSuccess:
		return Response{Status: StatusSuccess, ArchiveURL: res.ArchiveURL}, nil
	case ResultRateLimited:
		return Response{Status: StatusError, Reason: ReasonRateLimited}, nil
	case ResultInFlight:
		return Response{Status: StatusError, Reason: ReasonInProgress}, nil
	case ResultFailure:
		return Response{}, res.Err
	default:
		return Response{}, fmt.Errorf("unknown submission result %s", res.Kind)
	}
}
