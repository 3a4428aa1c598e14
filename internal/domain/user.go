package domain

import "time"

// User representa a entidade do usuário no sistema (administrador ou caixa).
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleCashier UserRole = "cashier"
)

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Principal é o usuário atuante resolvido pela camada de autenticação.
// O motor de vendas recebe o Principal explicitamente como parâmetro:
// nenhum estado global de "usuário atual" é consultado pelo núcleo.
type Principal struct {
	UserID int64
	Role   UserRole
}

// IsZero informa se nenhum principal foi resolvido (requisição anônima).
func (p Principal) IsZero() bool {
	return p.UserID == 0
}
