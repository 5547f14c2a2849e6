package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func TestFullGameFlow(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	game, err := service.StartGame(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if game.Phase() != domain.PhaseWaiting {
		t.Fatalf("expected WAITING, got %s", game.Phase())
	}

	alice, err := service.Join(game.Code(), "alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if alice.Token == "" {
		t.Fatalf("expected opaque token")
	}

	view, err := service.Advance(game.ID())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if view.Phase != domain.PhaseQuestion || view.Question == nil {
		t.Fatalf("expected QUESTION view, got %+v", view)
	}
	if view.Question.Index != 0 || view.Question.Total != 2 {
		t.Fatalf("expected question 0 of 2, got %+v", view.Question)
	}

	// Option 2 is the correct one in the test catalog.
	guess, err := service.SubmitGuess(game.Code(), alice.Token, 2)
	if err != nil {
		t.Fatalf("submit guess: %v", err)
	}
	if !guess.Correct {
		t.Fatalf("expected correct guess, got %+v", guess)
	}

	view, err = service.Advance(game.ID())
	if err != nil {
		t.Fatalf("advance to answer: %v", err)
	}
	if view.Phase != domain.PhaseAnswer || view.Reveal == nil {
		t.Fatalf("expected ANSWER view, got %+v", view)
	}
	if view.Reveal.CorrectPercentage != 100 {
		t.Fatalf("expected 100%% correct, got %v", view.Reveal.CorrectPercentage)
	}
	if view.Reveal.CorrectAnswer != "Right" {
		t.Fatalf("expected correct answer text, got %q", view.Reveal.CorrectAnswer)
	}

	view, err = service.Advance(game.ID())
	if err != nil {
		t.Fatalf("advance to question 2: %v", err)
	}
	if view.Phase != domain.PhaseQuestion || view.Question.Index != 1 {
		t.Fatalf("expected question 1, got %+v", view)
	}

	// Wrong answer this time, points stay at 1.
	if _, err := service.SubmitGuess(game.Code(), alice.Token, 1); err != nil {
		t.Fatalf("submit wrong guess: %v", err)
	}

	view, err = service.Advance(game.ID())
	if err != nil {
		t.Fatalf("advance to answer 2: %v", err)
	}
	if view.Reveal.CorrectPercentage != 0 {
		t.Fatalf("expected 0%% correct, got %v", view.Reveal.CorrectPercentage)
	}

	view, err = service.Advance(game.ID())
	if err != nil {
		t.Fatalf("advance to leaderboard: %v", err)
	}
	if view.Phase != domain.PhaseLeaderboard || view.Leaderboard == nil {
		t.Fatalf("expected LEADERBOARD view, got %+v", view)
	}
	if len(view.Leaderboard.Ranking) != 1 || view.Leaderboard.Ranking[0].Points != 1 {
		t.Fatalf("expected alice with 1 point, got %+v", view.Leaderboard.Ranking)
	}
	if view.Leaderboard.First == nil || view.Leaderboard.First.Alias != "alice" {
		t.Fatalf("expected alice first, got %+v", view.Leaderboard.First)
	}
	if view.Leaderboard.Second != nil || view.Leaderboard.Third != nil {
		t.Fatalf("expected empty podium ranks, got %+v", view.Leaderboard)
	}
}

func TestPhaseSequence(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	game, err := service.StartGame(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start game: %v", err)
	}

	var phases []domain.Phase
	for i := 0; i < 6; i++ {
		view, err := service.Advance(game.ID())
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		phases = append(phases, view.Phase)
	}

	want := []domain.Phase{
		domain.PhaseQuestion, domain.PhaseAnswer,
		domain.PhaseQuestion, domain.PhaseAnswer,
		domain.PhaseLeaderboard, domain.PhaseLeaderboard,
	}
	for i, p := range want {
		if phases[i] != p {
			t.Fatalf("advance %d: expected %s, got %s (all: %v)", i, p, phases[i], phases)
		}
	}
}

func TestAdvanceIdempotentAtLeaderboard(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	game, _ := service.StartGame(ctx, "quiz-1")
	alice, _ := service.Join(game.Code(), "alice")
	for i := 0; i < 5; i++ {
		if _, err := service.Advance(game.ID()); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	first, _ := service.Advance(game.ID())
	second, _ := service.Advance(game.ID())
	if first.Phase != domain.PhaseLeaderboard || second.Phase != domain.PhaseLeaderboard {
		t.Fatalf("expected stable leaderboard, got %s then %s", first.Phase, second.Phase)
	}
	if len(first.Leaderboard.Ranking) != len(second.Leaderboard.Ranking) {
		t.Fatalf("ranking changed across re-advance")
	}

	// A finished game has no current question to guess on.
	if _, err := service.SubmitGuess(game.Code(), alice.Token, 1); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected invalid answer on finished game, got %v", err)
	}
}

func TestJoinOutsideWaiting(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	game, _ := service.StartGame(ctx, "quiz-1")
	if _, err := service.Advance(game.ID()); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if _, err := service.Join(game.Code(), "late"); !errors.Is(err, domain.ErrGameNotWaiting) {
		t.Fatalf("expected not-waiting error, got %v", err)
	}
}

func TestInvalidAnswerSelector(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	game, _ := service.StartGame(ctx, "quiz-1")
	alice, _ := service.Join(game.Code(), "alice")
	_, _ = service.Advance(game.ID())

	for _, selector := range []int{0, -1, 3, 99} {
		if _, err := service.SubmitGuess(game.Code(), alice.Token, selector); !errors.Is(err, domain.ErrInvalidAnswer) {
			t.Fatalf("selector %d: expected invalid answer, got %v", selector, err)
		}
	}

	// No guess was persisted, so a valid one still goes through.
	if _, err := service.SubmitGuess(game.Code(), alice.Token, 2); err != nil {
		t.Fatalf("valid guess after invalid attempts: %v", err)
	}
}

func TestDuplicateGuess(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	game, _ := service.StartGame(ctx, "quiz-1")
	alice, _ := service.Join(game.Code(), "alice")
	_, _ = service.Advance(game.ID())

	if _, err := service.SubmitGuess(game.Code(), alice.Token, 2); err != nil {
		t.Fatalf("first guess: %v", err)
	}
	if _, err := service.SubmitGuess(game.Code(), alice.Token, 2); !errors.Is(err, domain.ErrDuplicateGuess) {
		t.Fatalf("expected duplicate guess, got %v", err)
	}

	ranking, _ := service.Ranking(game.ID())
	if ranking[0].Points != 1 {
		t.Fatalf("expected exactly 1 point after duplicate, got %d", ranking[0].Points)
	}
}

func TestAliasTaken(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	game, _ := service.StartGame(ctx, "quiz-1")
	if _, err := service.Join(game.Code(), "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.Join(game.Code(), "alice"); !errors.Is(err, domain.ErrAliasTaken) {
		t.Fatalf("expected alias taken, got %v", err)
	}
	// Case-sensitive: a different casing is a different alias.
	if _, err := service.Join(game.Code(), "Alice"); err != nil {
		t.Fatalf("expected distinct casing to join, got %v", err)
	}
}

func TestConcurrentJoinsSameAlias(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	game, _ := service.StartGame(ctx, "quiz-1")

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Join(game.Code(), "alice")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if !errors.Is(err, domain.ErrAliasTaken) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful join, got %d", successes)
	}
}

func TestConcurrentJoinsDistinctAliases(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	game, _ := service.StartGame(ctx, "quiz-1")

	const players = 16
	errs := make([]error, players)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = service.Join(game.Code(), fmt.Sprintf("player-%02d", i))
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	aliases, err := service.Aliases(game.Code())
	if err != nil {
		t.Fatalf("aliases: %v", err)
	}
	if len(aliases) != players {
		t.Fatalf("expected %d roster entries, got %d: %v", players, len(aliases), aliases)
	}
	seen := make(map[string]bool, players)
	for _, alias := range aliases {
		if seen[alias] {
			t.Fatalf("alias %q listed twice: %v", alias, aliases)
		}
		seen[alias] = true
	}
}

func TestConcurrentGuessScoring(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	game, _ := service.StartGame(ctx, "quiz-1")

	const players = 20
	tokens := make([]string, players)
	for i := 0; i < players; i++ {
		p, err := service.Join(game.Code(), "player-"+string(rune('a'+i)))
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		tokens[i] = p.Token
	}
	_, _ = service.Advance(game.ID())

	// Every player submits the correct answer twice in parallel: each must
	// be credited exactly once.
	var wg sync.WaitGroup
	for _, token := range tokens {
		for attempt := 0; attempt < 2; attempt++ {
			wg.Add(1)
			go func(token string) {
				defer wg.Done()
				_, _ = service.SubmitGuess(game.Code(), token, 2)
			}(token)
		}
	}
	wg.Wait()

	ranking, _ := service.Ranking(game.ID())
	if len(ranking) != players {
		t.Fatalf("expected %d entries, got %d", players, len(ranking))
	}
	for _, entry := range ranking {
		if entry.Points != 1 {
			t.Fatalf("expected 1 point for %s, got %d", entry.Alias, entry.Points)
		}
	}
}

func TestRankingOrderAndTies(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	game, _ := service.StartGame(ctx, "quiz-1")

	first, _ := service.Join(game.Code(), "first")
	second, _ := service.Join(game.Code(), "second")
	third, _ := service.Join(game.Code(), "third")
	_, _ = service.Advance(game.ID())

	// Only "third" scores; "first" and "second" tie at zero and keep join order.
	if _, err := service.SubmitGuess(game.Code(), third.Token, 2); err != nil {
		t.Fatalf("guess: %v", err)
	}
	_, _ = service.SubmitGuess(game.Code(), first.Token, 1)
	_ = second

	ranking, err := service.Ranking(game.ID())
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	want := []string{"third", "first", "second"}
	for i, alias := range want {
		if ranking[i].Alias != alias {
			t.Fatalf("expected %v, got %+v", want, ranking)
		}
	}
}

func TestRestartReplacesGame(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	old, err := service.StartGame(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Join(old.Code(), "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	replacement, err := service.StartGame(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if replacement.ID() == old.ID() {
		t.Fatalf("expected a fresh game id")
	}

	if _, err := service.LookupByID(old.ID()); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected old game gone, got %v", err)
	}
	aliases, err := service.Aliases(replacement.Code())
	if err != nil {
		t.Fatalf("aliases: %v", err)
	}
	if len(aliases) != 0 {
		t.Fatalf("expected empty roster after restart, got %v", aliases)
	}
}

func TestConcurrentRestartsKeepOneGame(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	const restarts = 16
	games := make([]*app.Game, restarts)
	errs := make([]error, restarts)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < restarts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			games[i], errs[i] = service.StartGame(ctx, "quiz-1")
		}(i)
	}
	close(start)
	wg.Wait()

	active := 0
	var survivor *app.Game
	for i, game := range games {
		if errs[i] != nil {
			t.Fatalf("start %d: %v", i, errs[i])
		}
		if _, err := service.LookupByID(game.ID()); err == nil {
			active++
			survivor = game
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active game for the questionnaire, got %d", active)
	}
	if _, err := service.Lookup(survivor.Code()); err != nil {
		t.Fatalf("surviving game not reachable by code: %v", err)
	}
}

func TestSlowWatcherDoesNotBlockGame(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	game, _ := service.StartGame(ctx, "quiz-1")

	// The watcher subscribes and then never reads.
	_, cancel, err := service.Watch(game.ID())
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 20; i++ {
			if _, err := service.Join(game.Code(), fmt.Sprintf("p%02d", i)); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("join: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("game operations blocked behind an unread watch channel")
	}

	aliases, err := service.Aliases(game.Code())
	if err != nil {
		t.Fatalf("aliases: %v", err)
	}
	if len(aliases) != 20 {
		t.Fatalf("expected all 20 joins recorded, got %d", len(aliases))
	}
}

func TestStartGameUnknownQuestionnaire(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	if _, err := service.StartGame(ctx, "nope"); !errors.Is(err, domain.ErrQuestionnaireNotFound) {
		t.Fatalf("expected questionnaire not found, got %v", err)
	}
	// A questionnaire with no questions cannot be played either.
	if _, err := service.StartGame(ctx, "quiz-empty"); !errors.Is(err, domain.ErrQuestionnaireNotFound) {
		t.Fatalf("expected empty questionnaire rejected, got %v", err)
	}
}

func TestSubmitGuessLookupFailures(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	game, _ := service.StartGame(ctx, "quiz-1")
	_, _ = service.Join(game.Code(), "alice")
	_, _ = service.Advance(game.ID())

	if _, err := service.SubmitGuess(999999999, "whatever", 1); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}
	if _, err := service.SubmitGuess(game.Code(), "forged-token", 1); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected participant not found, got %v", err)
	}
}

func TestEndGameCascades(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	game, _ := service.StartGame(ctx, "quiz-1")
	_, _ = service.Join(game.Code(), "alice")

	if err := service.EndGame(game.ID()); err != nil {
		t.Fatalf("end game: %v", err)
	}
	if _, err := service.Lookup(game.Code()); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected game gone, got %v", err)
	}
	if err := service.EndGame(game.ID()); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected second end to fail, got %v", err)
	}
}

func TestWatchReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := newTestService()
	game, _ := service.StartGame(ctx, "quiz-1")

	ch, cancel, err := service.Watch(game.ID())
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	initial := <-ch
	if initial.Phase != domain.PhaseWaiting || len(initial.Waiting.Aliases) != 0 {
		t.Fatalf("expected empty waiting room, got %+v", initial)
	}

	if _, err := service.Join(game.Code(), "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	select {
	case update := <-ch:
		if len(update.Waiting.Aliases) != 1 || update.Waiting.Aliases[0] != "alice" {
			t.Fatalf("expected alice in roster, got %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for roster update")
	}
}

func newTestService() *app.GameService {
	games := memory.NewGameRegistry()
	catalog := memory.NewCatalog(memory.NewStaticCatalogLoader(map[string]domain.Questionnaire{
		"quiz-1":     twoQuestionQuiz(),
		"quiz-empty": {ID: "quiz-empty", Title: "Empty"},
	}), 5*time.Minute)
	return app.NewGameService(games, catalog, 10)
}

func twoQuestionQuiz() domain.Questionnaire {
	return domain.Questionnaire{
		ID:    "quiz-1",
		Title: "Sample quiz",
		Questions: []domain.Question{
			{
				ID:         "q1",
				Text:       "Pick the right option",
				AnswerTime: 15,
				Answers: []domain.Answer{
					{ID: "a1", Text: "Wrong"},
					{ID: "a2", Text: "Right", Correct: true},
				},
			},
			{
				ID:         "q2",
				Text:       "Pick the right option again",
				AnswerTime: 15,
				Answers: []domain.Answer{
					{ID: "a3", Text: "Wrong"},
					{ID: "a4", Text: "Right", Correct: true},
				},
			},
		},
	}
}
