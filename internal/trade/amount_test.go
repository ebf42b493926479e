package trade

import (
	"math/big"
	"testing"
)

func TestValidateAmountArgs(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		percentage float64
		wantErr    bool
	}{
		{name: "amount only", amount: 1.5, wantErr: false},
		{name: "percentage only", percentage: 50, wantErr: false},
		{name: "both set", amount: 1, percentage: 50, wantErr: true},
		{name: "neither set", wantErr: true},
		{name: "negative amount", amount: -1, wantErr: true},
		{name: "percentage above 100", percentage: 101, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmountArgs(tt.amount, tt.percentage)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAmountArgs(%v, %v) error = %v, wantErr %v", tt.amount, tt.percentage, err, tt.wantErr)
			}
		})
	}
}

func TestResolveAmountAbsolute(t *testing.T) {
	balance := big.NewInt(5_000_000)

	wei, human, err := ResolveAmount(balance, 6, 1.5, 0)
	if err != nil {
		t.Fatalf("ResolveAmount: %v", err)
	}
	if wei.Cmp(big.NewInt(1_500_000)) != 0 {
		t.Fatalf("wei = %s, want 1500000", wei)
	}
	if human != 1.5 {
		t.Fatalf("human = %v, want 1.5", human)
	}
}

func TestResolveAmountPercentage(t *testing.T) {
	balance := big.NewInt(1_000_000)

	wei, _, err := ResolveAmount(balance, 6, 0, 25)
	if err != nil {
		t.Fatalf("ResolveAmount: %v", err)
	}
	if wei.Cmp(big.NewInt(250_000)) != 0 {
		t.Fatalf("wei = %s, want 250000", wei)
	}
}

func TestResolveAmountFullBalance(t *testing.T) {
	// An odd balance that would lose precision through float math must come
	// back untouched at 100 percent.
	balance, _ := new(big.Int).SetString("123456789123456789123456789", 10)

	wei, _, err := ResolveAmount(balance, 18, 0, 100)
	if err != nil {
		t.Fatalf("ResolveAmount: %v", err)
	}
	if wei.Cmp(balance) != 0 {
		t.Fatalf("wei = %s, want %s", wei, balance)
	}
	if wei == balance {
		t.Fatal("returned amount aliases the balance")
	}
}

func TestResolveAmountRejectsBadArgs(t *testing.T) {
	balance := big.NewInt(1000)

	if _, _, err := ResolveAmount(balance, 18, 1, 50); err == nil {
		t.Fatal("expected error for amount and percentage together")
	}
	if _, _, err := ResolveAmount(balance, 18, 0, 0); err == nil {
		t.Fatal("expected error for neither amount nor percentage")
	}
}
