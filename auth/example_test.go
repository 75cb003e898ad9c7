package auth_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/pidigits/auth"
)

func ExampleJWTAuthenticator_Authenticate() {
	key := []byte("example-key")
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "ops",
		"roles": []string{"admin"},
	}).SignedString(key)

	authn := auth.NewJWTAuthenticator(auth.JWTConfig{}, auth.NewStaticKeyProvider(key))

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)
	result, _ := authn.Authenticate(context.Background(), &auth.AuthRequest{Headers: headers})

	fmt.Println(result.Authenticated, result.Identity.Principal, result.Identity.HasRole("admin"))
	// Output: true ops true
}
