package fiscalization

import "time"

// Config parámetros del orquestador.
type Config struct {
	MaxAge         time.Duration // antigüedad máxima para FINA
	AttemptTimeout time.Duration // límite de cada intento remoto
	PersistTimeout time.Duration // límite de la escritura del resultado (contexto propio)
	LockTTL        time.Duration
	StaleAfter     time.Duration // un fiscalizing más antiguo se considera abandonado
	BatchDelay     time.Duration // pausa tras cada llamada remota del lote
	BatchWorkers   int           // 1 = secuencial
}

// DefaultConfig valores de referencia.
func DefaultConfig() Config {
	return Config{
		MaxAge:         30 * 24 * time.Hour,
		AttemptTimeout: 45 * time.Second,
		PersistTimeout: 10 * time.Second,
		LockTTL:        2 * time.Minute,
		StaleAfter:     5 * time.Minute,
		BatchDelay:     500 * time.Millisecond,
		BatchWorkers:   1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAge <= 0 {
		c.MaxAge = d.MaxAge
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = d.PersistTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = d.LockTTL
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = d.StaleAfter
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	}
	if c.BatchWorkers < 1 {
		c.BatchWorkers = 1
	}
	return c
}
