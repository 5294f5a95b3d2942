package telegram

import "time"

// ConnState es el estado de la conexión con la API de Telegram.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Reconnector modela la reconexión del bot como una máquina de estados
// explícita con backoff exponencial entre intentos fallidos.
type Reconnector struct {
	state   ConnState
	initial time.Duration
	max     time.Duration
	next    time.Duration
}

func NewReconnector(initial, max time.Duration) *Reconnector {
	if initial <= 0 {
		initial = time.Second
	}
	if max < initial {
		max = initial
	}
	return &Reconnector{
		state:   Disconnected,
		initial: initial,
		max:     max,
		next:    initial,
	}
}

func (r *Reconnector) State() ConnState {
	return r.state
}

// Connecting marca el inicio de un intento de conexión.
func (r *Reconnector) Connecting() {
	r.state = Connecting
}

// Connected registra una conexión exitosa y reinicia el backoff.
func (r *Reconnector) Connected() {
	r.state = Connected
	r.next = r.initial
}

// Failed registra un intento fallido y devuelve cuánto esperar antes del próximo.
func (r *Reconnector) Failed() time.Duration {
	r.state = Disconnected
	delay := r.next
	r.next *= 2
	if r.next > r.max {
		r.next = r.max
	}
	return delay
}
