package util

import "time"

// Now devolve o instante atual em UTC. Substituível em testes.
var Now = func() time.Time {
	return time.Now().UTC()
}

// Today trunca t para a meia-noite do mesmo dia, preservando o fuso.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
