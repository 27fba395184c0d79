package logic

import (
	"sync"
	"time"

	"github.com/pccr10001/ringline/internal/model"
	"github.com/pccr10001/ringline/internal/repository"
	"github.com/pccr10001/ringline/pkg/logger"
)

// JournalService writes accepted transitions to the call journal without
// holding up the control loop.
type JournalService struct {
	repo *repository.CallEventRepository
	wg   sync.WaitGroup
}

func NewJournalService(repo *repository.CallEventRepository) *JournalService {
	return &JournalService{repo: repo}
}

func (s *JournalService) Record(trigger, from, to, source string) {
	event := &model.CallEvent{
		Trigger:   trigger,
		FromState: from,
		ToState:   to,
		Source:    source,
		CreatedAt: time.Now(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.Create(event); err != nil {
			logger.Log.Errorf("Failed to journal %s (%s -> %s): %v", trigger, from, to, err)
		}
	}()
}

func (s *JournalService) Recent(limit int) ([]model.CallEvent, error) {
	return s.repo.Recent(limit)
}

// CallCounts reports how many rung calls were answered and missed.
func (s *JournalService) CallCounts() (answered, missed int64, err error) {
	if answered, err = s.repo.CountByTrigger("answer_call"); err != nil {
		return 0, 0, err
	}
	if missed, err = s.repo.CountByTrigger("miss_call"); err != nil {
		return 0, 0, err
	}
	return answered, missed, nil
}

// Flush waits for pending writes, used on shutdown.
func (s *JournalService) Flush() {
	s.wg.Wait()
}
