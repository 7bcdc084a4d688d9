package session

import (
	"testing"

	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/message"
	"github.com/graphwire/boltcore/internal/testutil/testlog"
)

func TestTrivialRunPullRoundTrip(t *testing.T) {
	testlog.Start(t)
	s := New(dispatch.V3)

	if _, err := mustSubmit(t, s, KindInit); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("INIT success: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state after INIT = %s, want ready", s.State())
	}

	if _, err := mustSubmit(t, s, KindRun); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("RUN success: %v", err)
	}
	if s.State() != Streaming {
		t.Fatalf("state after RUN = %s, want streaming", s.State())
	}

	if _, err := mustSubmit(t, s, KindPullAll); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		kind, outcome, err := s.HandleResponse(message.SigRecord)
		if err != nil {
			t.Fatalf("RECORD %d: %v", i, err)
		}
		if kind != KindPullAll || outcome != OutcomeDeliver {
			t.Fatalf("RECORD %d: kind=%v outcome=%v", i, kind, outcome)
		}
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("PULL_ALL success: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state after PULL_ALL = %s, want ready", s.State())
	}
}

func TestFailureRecoveryViaAckFailureV1(t *testing.T) {
	testlog.Start(t)
	s := New(dispatch.V1)
	mustInit(t, s)

	if _, err := mustSubmit(t, s, KindRun); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.HandleResponse(message.SigFailure); err != nil {
		t.Fatalf("RUN failure: %v", err)
	}
	if s.State() != Failed {
		t.Fatalf("state after FAILURE = %s, want failed", s.State())
	}

	outcome, err := s.Submit(KindAckFailure)
	if err != nil {
		t.Fatalf("submit ACK_FAILURE: %v", err)
	}
	if outcome != OutcomeDeliver {
		t.Fatalf("ACK_FAILURE outcome = %v, want deliver", outcome)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("ACK_FAILURE success: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state after ACK_FAILURE = %s, want ready", s.State())
	}
}

func TestIgnoredAfterFailureUntilReset(t *testing.T) {
	testlog.Start(t)
	s := New(dispatch.V3)
	mustInit(t, s)

	if _, err := mustSubmit(t, s, KindRun); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.HandleResponse(message.SigFailure); err != nil {
		t.Fatalf("RUN failure: %v", err)
	}

	// Two requests submitted while the session is Failed, before any
	// RESET: both must be resolved as IGNORED, never delivered as real
	// results.
	outcome1, err := s.Submit(KindPullAll)
	if err != nil {
		t.Fatalf("submit PULL_ALL: %v", err)
	}
	if outcome1 != OutcomeIgnored {
		t.Fatalf("PULL_ALL outcome = %v, want ignored", outcome1)
	}
	outcome2, err := s.Submit(KindRun)
	if err != nil {
		t.Fatalf("submit RUN: %v", err)
	}
	if outcome2 != OutcomeIgnored {
		t.Fatalf("second RUN outcome = %v, want ignored", outcome2)
	}

	if _, _, err := s.HandleResponse(message.SigIgnored); err != nil {
		t.Fatalf("first IGNORED: %v", err)
	}
	if _, _, err := s.HandleResponse(message.SigIgnored); err != nil {
		t.Fatalf("second IGNORED: %v", err)
	}

	// RESET clears the failure and resolves to Ready.
	outcomeReset, err := s.Submit(KindReset)
	if err != nil {
		t.Fatalf("submit RESET: %v", err)
	}
	if outcomeReset != OutcomeDeliver {
		t.Fatalf("RESET outcome = %v, want deliver", outcomeReset)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("RESET success: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state after RESET = %s, want ready", s.State())
	}
}

func TestResetSubmissionIsImmediatelyInterrupted(t *testing.T) {
	testlog.Start(t)
	s := New(dispatch.V3)
	mustInit(t, s)

	if _, err := mustSubmit(t, s, KindRun); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(KindReset); err != nil {
		t.Fatalf("submit RESET: %v", err)
	}
	if s.State() != Interrupted {
		t.Fatalf("state after submitting RESET = %s, want interrupted", s.State())
	}

	// The RUN submitted before RESET must still answer IGNORED once
	// RESET has been observed.
	if _, _, err := s.HandleResponse(message.SigIgnored); err != nil {
		t.Fatalf("RUN ignored: %v", err)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("RESET success: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state after RESET resolves = %s, want ready", s.State())
	}
}

func TestResetResolvesCompletedWorkAsIgnored(t *testing.T) {
	testlog.Start(t)
	s := New(dispatch.V3)
	mustInit(t, s)

	// RUN and PULL_ALL are in flight when RESET is submitted. The
	// server had already finished the RUN and streamed one row before
	// it observed the RESET, so the wire carries real responses for
	// both; the caller must still see them resolved as IGNORED.
	if _, err := mustSubmit(t, s, KindRun); err != nil {
		t.Fatal(err)
	}
	if _, err := mustSubmit(t, s, KindPullAll); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(KindReset); err != nil {
		t.Fatalf("submit RESET: %v", err)
	}

	kind, outcome, err := s.HandleResponse(message.SigSuccess) // RUN's real SUCCESS
	if err != nil {
		t.Fatalf("RUN success after RESET: %v", err)
	}
	if kind != KindRun || outcome != OutcomeIgnored {
		t.Fatalf("RUN resolution = %v/%v, want RUN/ignored", kind, outcome)
	}

	kind, outcome, err = s.HandleResponse(message.SigRecord) // a row streamed pre-RESET
	if err != nil {
		t.Fatalf("RECORD after RESET: %v", err)
	}
	if kind != KindPullAll || outcome != OutcomeIgnored {
		t.Fatalf("RECORD resolution = %v/%v, want PULL_ALL/ignored", kind, outcome)
	}
	if _, _, err := s.HandleResponse(message.SigIgnored); err != nil { // PULL_ALL's IGNORED
		t.Fatalf("PULL_ALL ignored: %v", err)
	}

	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil { // RESET's own SUCCESS
		t.Fatalf("RESET success: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state after RESET resolves = %s, want ready", s.State())
	}
}

func TestResponseWithNoPendingRequestIsFatal(t *testing.T) {
	testlog.Start(t)
	s := New(dispatch.V3)
	mustInit(t, s)

	if _, _, err := s.HandleResponse(message.SigSuccess); err == nil {
		t.Fatal("expected protocol error for unsolicited response")
	}
	if s.State() != Defunct {
		t.Fatalf("state = %s, want defunct", s.State())
	}
}

func TestTransactionLifecycleV3(t *testing.T) {
	testlog.Start(t)
	s := New(dispatch.V3)
	mustInit(t, s)

	if _, err := mustSubmit(t, s, KindBegin); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("BEGIN success: %v", err)
	}
	if s.State() != TxReady {
		t.Fatalf("state after BEGIN = %s, want tx_ready", s.State())
	}

	if _, err := mustSubmit(t, s, KindRun); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("RUN success: %v", err)
	}
	if s.State() != TxStreaming {
		t.Fatalf("state after RUN = %s, want tx_streaming", s.State())
	}

	if _, err := mustSubmit(t, s, KindPullAll); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("PULL_ALL success: %v", err)
	}
	if s.State() != TxReady {
		t.Fatalf("state after PULL_ALL = %s, want tx_ready", s.State())
	}

	if _, err := mustSubmit(t, s, KindCommit); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("COMMIT success: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state after COMMIT = %s, want ready", s.State())
	}
}

func TestGoodbyeLegalFromAnyNonTerminalState(t *testing.T) {
	testlog.Start(t)

	// Close before authentication: the session is still Connected.
	s := New(dispatch.V3)
	outcome, err := s.Submit(KindGoodbye)
	if err != nil {
		t.Fatalf("submit GOODBYE from connected: %v", err)
	}
	if outcome != OutcomeDeliver {
		t.Fatalf("GOODBYE outcome = %v, want deliver", outcome)
	}
	if s.State() != Defunct {
		t.Fatalf("state after GOODBYE = %s, want defunct", s.State())
	}

	// Close mid-stream.
	s = New(dispatch.V3)
	mustInit(t, s)
	if _, err := mustSubmit(t, s, KindRun); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("RUN success: %v", err)
	}
	if _, err := s.Submit(KindGoodbye); err != nil {
		t.Fatalf("submit GOODBYE while streaming: %v", err)
	}
	if s.State() != Defunct {
		t.Fatalf("state after GOODBYE = %s, want defunct", s.State())
	}

	// Never from a session already gone.
	if _, err := s.Submit(KindGoodbye); err == nil {
		t.Fatal("expected error submitting GOODBYE on a defunct session")
	}
}

func TestGoodbyeRejectedBelowV3(t *testing.T) {
	testlog.Start(t)
	s := New(dispatch.V1)
	mustInit(t, s)

	if _, err := s.Submit(KindGoodbye); err == nil {
		t.Fatal("expected error submitting GOODBYE under v1")
	}
}

func TestBeginRejectedBelowV3(t *testing.T) {
	testlog.Start(t)
	s := New(dispatch.V2)
	mustInit(t, s)

	if _, err := s.Submit(KindBegin); err == nil {
		t.Fatal("expected error submitting BEGIN under v2")
	}
}

func mustInit(t *testing.T, s *Session) {
	t.Helper()
	if _, err := mustSubmit(t, s, KindInit); err != nil {
		t.Fatalf("submit INIT: %v", err)
	}
	if _, _, err := s.HandleResponse(message.SigSuccess); err != nil {
		t.Fatalf("INIT success: %v", err)
	}
}

func mustSubmit(t *testing.T, s *Session, kind RequestKind) (Outcome, error) {
	t.Helper()
	outcome, err := s.Submit(kind)
	if err != nil {
		t.Fatalf("submit %s: %v", kind, err)
	}
	return outcome, err
}
