package lock

import (
	"fmt"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
)

// ErrHeld la clave ya está tomada por otro intento. Envuelve domain.ErrConflict.
var ErrHeld = fmt.Errorf("%w: la factura ya tiene un envío en curso", domain.ErrConflict)
