package swap

import (
	"context"
	"log"
	"time"
)

// Sweeper периодически сбрасывает обмены, зависшие в статусе
// location_suggested дольше настроенного таймаута
type Sweeper struct {
	service  *SwapService
	interval time.Duration
}

// NewSweeper создает новый экземпляр Sweeper
func NewSweeper(service *SwapService, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
	}
}

// Run запускает цикл сброса. Блокируется до отмены контекста,
// поэтому вызывается в отдельной горутине.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("✅ Запущен сброс просроченных предложений места встречи (интервал: %s)", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Сброс просроченных предложений остановлен")
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := s.service.SweepExpiredLocationSuggestions(sweepCtx, time.Now()); err != nil {
				log.Printf("❌ %v", err)
			}
			cancel()
		}
	}
}
