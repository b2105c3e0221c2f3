package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"termo/internal/audit"
	"termo/internal/document/artifact"
	"termo/internal/document/models"
	"termo/internal/document/stamp"
	pmodels "termo/internal/participant/models"
	"termo/internal/participant/store"
	"termo/internal/platform/metrics"
	dErrors "termo/pkg/domain-errors"
	"termo/pkg/platform/sentinel"
	"termo/pkg/requestcontext"
	"termo/pkg/testutil"
)

const (
	participantID = pmodels.DocumentID("12345678901")
	artifactName  = "12345678901.pdf"
	artifactURL   = "/artifacts/12345678901.pdf"
)

// flakyStore fails the next MarkSigned call when armed, simulating a crash
// between the artifact write and the flag update.
type flakyStore struct {
	*store.InMemoryStore
	failMarkSigned atomic.Bool
}

func (f *flakyStore) MarkSigned(ctx context.Context, id pmodels.DocumentID, at time.Time) (*pmodels.Participant, error) {
	if f.failMarkSigned.Swap(false) {
		return nil, errors.New("connection reset by peer")
	}
	return f.InMemoryStore.MarkSigned(ctx, id, at)
}

type DocumentServiceSuite struct {
	suite.Suite
	ctx          context.Context
	now          time.Time
	participants *flakyStore
	artifacts    *artifact.FSStore
	publisher    *audit.Publisher
	metrics      *metrics.Metrics
	service      *Service
}

func TestDocumentServiceSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceSuite))
}

func (s *DocumentServiceSuite) SetupTest() {
	s.now = time.Date(2025, time.January, 20, 15, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "req-1"), s.now)

	s.participants = &flakyStore{InMemoryStore: store.NewInMemoryStore()}
	s.Require().NoError(s.participants.Upsert(context.Background(), &pmodels.Participant{
		DocumentID:    participantID,
		FullName:      "Pedro Souza",
		GuardianName:  "Ana Souza",
		GuardianPhone: "67988887777",
		Campus:        "Centro",
		Age:           12,
	}))
	s.artifacts = artifact.NewFSStore(filepath.Join(s.T().TempDir(), "artifacts"))
	s.publisher = audit.NewPublisher(64)
	s.metrics = metrics.New(prometheus.NewRegistry())

	s.service = New(s.participants, s.artifacts,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAuditPublisher(s.publisher),
		WithPaths(artifact.NewPaths("/artifacts/")),
		WithLocation(time.FixedZone("AMT", -4*60*60)),
	)
}

func (s *DocumentServiceSuite) compose() *pmodels.Participant {
	p, err := s.service.Compose(s.ctx, participantID, models.ComposeRequest{ContactName: "João", ContactPhone: "67999990000"})
	s.Require().NoError(err)
	return p
}

func (s *DocumentServiceSuite) sign(resign bool) (*models.SignResult, error) {
	return s.service.ApplySignature(s.ctx, participantID, models.SignRequest{
		Signature: testutil.SignatureDataURI(s.T()),
		Resign:    resign,
	})
}

func (s *DocumentServiceSuite) artifact() []byte {
	data, err := s.artifacts.Read(context.Background(), artifactName)
	s.Require().NoError(err)
	return data
}

func (s *DocumentServiceSuite) stored() *pmodels.Participant {
	p, err := s.participants.FindByDocumentID(context.Background(), participantID)
	s.Require().NoError(err)
	return p
}

func (s *DocumentServiceSuite) events() []audit.Event {
	var out []audit.Event
	for {
		select {
		case e := <-s.publisher.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

func (s *DocumentServiceSuite) TestCompose() {
	s.Run("writes the artifact and records it unsigned", func() {
		p := s.compose()

		s.Equal(artifactURL, p.DocumentPath)
		s.False(p.Signed)
		s.Nil(p.SignedAt)
		s.Equal("João", p.ContactName)
		s.Equal("67999990000", p.ContactPhone)

		data := s.artifact()
		s.True(len(data) > 4 && string(data[:4]) == "%PDF")
		s.False(stamp.IsStamped(data))

		stored := s.stored()
		s.Equal(artifactURL, stored.DocumentPath)
		s.Equal("João", stored.ContactName)
	})

	s.Run("persists overrides over the stored record", func() {
		p, err := s.service.Compose(s.ctx, participantID, models.ComposeRequest{
			ContactName:  "João",
			ContactPhone: "67999990000",
			Overrides:    &pmodels.Overrides{GuardianName: "Maria Silva", GuardianPhone: "  "},
		})
		s.Require().NoError(err)

		s.Equal("Maria Silva", p.GuardianName)
		s.Equal("67988887777", p.GuardianPhone)
		s.Equal("Pedro Souza", p.FullName)
		s.Equal("Maria Silva", s.stored().GuardianName)
	})

	s.Run("counts and audits the generation", func() {
		before := promtest.ToFloat64(s.metrics.DocumentsGenerated)
		s.events()

		s.compose()

		s.Equal(before+1, promtest.ToFloat64(s.metrics.DocumentsGenerated))
		events := s.events()
		s.Require().Len(events, 1)
		s.Equal(audit.EventDocumentGenerated, events[0].Action)
		s.Equal(audit.HashSubject(string(participantID)), events[0].SubjectHash)
		s.Equal("req-1", events[0].RequestID)
		s.NotEmpty(events[0].Attributes["pages"])
	})
}

func (s *DocumentServiceSuite) TestComposeRejections() {
	s.Run("blank contact is a validation error and writes nothing", func() {
		_, err := s.service.Compose(s.ctx, participantID, models.ComposeRequest{ContactName: "  ", ContactPhone: "67999990000"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.artifacts.Read(context.Background(), artifactName)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.Empty(s.stored().ContactName)
	})

	s.Run("unknown participant", func() {
		_, err := s.service.Compose(s.ctx, "99999999999", models.ComposeRequest{ContactName: "João", ContactPhone: "67999990000"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *DocumentServiceSuite) TestApplySignature() {
	s.Run("stamps the last page and flips the flag", func() {
		s.compose()
		unsigned := s.artifact()
		pages, err := stamp.NewCompositor(stamp.DefaultPlacement()).PageCount(unsigned)
		s.Require().NoError(err)

		res, err := s.sign(false)
		s.Require().NoError(err)
		s.True(res.Success)
		s.False(res.Recovered)
		s.Equal(artifactURL, res.DocumentURL)

		signed := s.artifact()
		s.Greater(len(signed), len(unsigned))
		s.True(stamp.IsStamped(signed))
		signedPages, err := stamp.NewCompositor(stamp.DefaultPlacement()).PageCount(signed)
		s.Require().NoError(err)
		s.Equal(pages, signedPages)

		p := s.stored()
		s.True(p.Signed)
		s.Require().NotNil(p.SignedAt)
		s.True(p.SignedAt.Equal(s.now))
		s.Equal(1.0, promtest.ToFloat64(s.metrics.DocumentsSigned))
	})

	s.Run("a second signature is a conflict and leaves the artifact alone", func() {
		before := s.artifact()

		_, err := s.sign(false)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(before, s.artifact())
		s.Equal(1.0, promtest.ToFloat64(s.metrics.SignatureConflicts))
		s.Equal(1.0, promtest.ToFloat64(s.metrics.SignatureRejected.WithLabelValues(string(dErrors.CodeConflict))))
	})

	s.Run("resign stamps again", func() {
		before := s.artifact()

		res, err := s.sign(true)
		s.Require().NoError(err)
		s.True(res.Success)
		s.NotEqual(before, s.artifact())
		s.True(s.stored().Signed)
	})

	s.Run("regenerating resets the signature", func() {
		p := s.compose()

		s.False(p.Signed)
		s.Nil(p.SignedAt)
		s.False(stamp.IsStamped(s.artifact()))

		_, err := s.sign(false)
		s.NoError(err)
	})
}

func (s *DocumentServiceSuite) TestApplySignatureRejections() {
	s.Run("before any document was generated", func() {
		_, err := s.sign(false)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown participant", func() {
		_, err := s.service.ApplySignature(s.ctx, "99999999999", models.SignRequest{Signature: testutil.SignatureDataURI(s.T())})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank payload", func() {
		s.compose()
		_, err := s.service.ApplySignature(s.ctx, participantID, models.SignRequest{Signature: " "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("payload that is not an image", func() {
		before := s.artifact()
		s.events()

		_, err := s.service.ApplySignature(s.ctx, participantID, models.SignRequest{Signature: "data:image/png;base64,bm90IGFuIGltYWdl"})
		s.True(dErrors.HasCode(err, dErrors.CodeDecode))
		s.False(s.stored().Signed)
		s.Equal(before, s.artifact())
		s.Equal(1.0, promtest.ToFloat64(s.metrics.SignatureRejected.WithLabelValues(string(dErrors.CodeDecode))))

		var rejected int
		for _, e := range s.events() {
			if e.Action == audit.EventSignatureRejected {
				rejected++
				s.Equal(string(dErrors.CodeDecode), e.Reason)
			}
		}
		s.Equal(1, rejected)
	})

	s.Run("artifact that is not a PDF", func() {
		s.Require().NoError(s.artifacts.Write(context.Background(), artifactName, []byte("truncated")))

		_, err := s.sign(false)
		s.True(dErrors.HasCode(err, dErrors.CodeStorage))
		s.False(s.stored().Signed)
	})

	s.Run("artifact missing from storage", func() {
		_, err := s.participants.SetArtifact(context.Background(), participantID, "/artifacts/00000000000.pdf", s.now)
		s.Require().NoError(err)

		_, err = s.sign(false)
		s.True(dErrors.HasCode(err, dErrors.CodeStorage))
	})

	s.Run("recorded path outside the artifact prefix", func() {
		_, err := s.participants.SetArtifact(context.Background(), participantID, "/etc/passwd", s.now)
		s.Require().NoError(err)

		_, err = s.sign(false)
		s.True(dErrors.HasCode(err, dErrors.CodeStorage))
	})
}

func (s *DocumentServiceSuite) TestArtifact() {
	s.Run("returns the stored bytes", func() {
		s.compose()
		data, err := s.service.Artifact(s.ctx, artifactName)
		s.Require().NoError(err)
		s.Equal(s.artifact(), data)
	})

	s.Run("unknown and malformed names are not found", func() {
		for _, name := range []string{"00000000000.pdf", "../secrets.pdf", "12345678901.txt", ""} {
			_, err := s.service.Artifact(s.ctx, name)
			s.True(dErrors.HasCode(err, dErrors.CodeNotFound), name)
		}
	})
}

func (s *DocumentServiceSuite) TestRecoversInterruptedSignature() {
	s.compose()
	s.participants.failMarkSigned.Store(true)

	_, err := s.sign(false)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.False(s.stored().Signed)
	stamped := s.artifact()
	s.True(stamp.IsStamped(stamped))

	res, err := s.sign(false)
	s.Require().NoError(err)
	s.True(res.Recovered)
	s.True(s.stored().Signed)
	s.Equal(stamped, s.artifact(), "recovery must not stamp a second time")

	var recovered bool
	for _, e := range s.events() {
		if e.Action == audit.EventSignatureRecovered {
			recovered = true
		}
	}
	s.True(recovered)
}

func (s *DocumentServiceSuite) TestConcurrentSignaturesAreSerialized() {
	s.compose()

	var succeeded, conflicted atomic.Int32
	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			_, err := s.sign(false)
			switch {
			case err == nil:
				succeeded.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicted.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(int32(1), succeeded.Load())
	s.Equal(int32(7), conflicted.Load())
	s.True(stamp.IsStamped(s.artifact()))
}

func TestConsentLifecycle(t *testing.T) {
	participants := store.NewInMemoryStore()
	require.NoError(t, participants.Upsert(context.Background(), &pmodels.Participant{
		DocumentID:   participantID,
		FullName:     "Pedro Souza",
		GuardianName: "Ana Souza",
	}))
	artifacts := artifact.NewFSStore(t.TempDir())
	svc := New(participants, artifacts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx := context.Background()

	testutil.Describe(t, "participant 12345678901 signs the consent document", func(sc *testutil.Scenario) {
		sc.Given("a generated document", func(t *testing.T) {
			p, err := svc.Compose(ctx, participantID, models.ComposeRequest{ContactName: "João", ContactPhone: "67999990000"})
			require.NoError(t, err)
			assert.Equal(t, artifactURL, p.DocumentPath)
			assert.False(t, p.Signed)
		})
		sc.When("the guardian signs", func(t *testing.T) {
			res, err := svc.ApplySignature(ctx, participantID, models.SignRequest{Signature: testutil.SignatureDataURI(t)})
			require.NoError(t, err)
			assert.True(t, res.Success)
		})
		sc.Then("the participant is signed", func(t *testing.T) {
			p, err := participants.FindByDocumentID(ctx, participantID)
			require.NoError(t, err)
			assert.True(t, p.Signed)
		})
		sc.Then("signing again is rejected", func(t *testing.T) {
			_, err := svc.ApplySignature(ctx, participantID, models.SignRequest{Signature: testutil.SignatureDataURI(t)})
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		})
	})
}
