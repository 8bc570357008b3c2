package auth

import "github.com/alexedwards/argon2id"

// Parámetros de hash de contraseñas. Quedan codificados dentro del propio
// hash, así que pueden endurecerse sin invalidar cuentas existentes.
var hashParams = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash deriva un hash Argon2id de la contraseña.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, hashParams)
}

// Verify compara la contraseña contra un hash Argon2id almacenado.
func Verify(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}
