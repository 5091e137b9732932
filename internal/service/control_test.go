package service

import (
	"context"
	"errors"
	"testing"

	"terrarium_control/internal/control"
	"terrarium_control/internal/models"
)

func TestControlService_SetNatural(t *testing.T) {
	tests := []struct {
		name        string
		useNatural  bool
		weight      float64
		wantNatural []float64
		wantManual  int
		wantInvalid bool
	}{
		{name: "natural", useNatural: true, weight: 0.4, wantNatural: []float64{0.4}},
		{name: "manual keeps stored colour", useNatural: false, weight: 0.4, wantManual: 1},
		{name: "weight above one", useNatural: true, weight: 1.5, wantInvalid: true},
		{name: "weight checked in manual too", useNatural: false, weight: -0.1, wantInvalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loop := &fakeLoop{status: control.Status{LED: models.LEDState{ManualColor: models.RGBWW{R: 10}}}}
			svc := NewControlService(loop, nil)

			err := svc.SetNatural(tt.useNatural, tt.weight)
			if tt.wantInvalid {
				if !models.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if len(loop.naturalCalls)+loop.manualCalls != 0 {
					t.Fatalf("loop must not be called on invalid input")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetNatural: %v", err)
			}
			if len(loop.naturalCalls) != len(tt.wantNatural) || loop.manualCalls != tt.wantManual {
				t.Fatalf("natural=%v manual=%d", loop.naturalCalls, loop.manualCalls)
			}
			if len(loop.colorCalls) != 0 {
				t.Fatalf("leaving natural mode must not resend a colour snapshot, got %v", loop.colorCalls)
			}
		})
	}
}

func TestControlService_ForwardsErrors(t *testing.T) {
	loop := &fakeLoop{err: models.ErrQueueFull, resetErr: models.ErrStillUnsafe}
	svc := NewControlService(loop, nil)

	if err := svc.SetPower(true); !errors.Is(err, models.ErrQueueFull) {
		t.Fatalf("SetPower err = %v", err)
	}
	if err := svc.SetColor(models.RGBWW{R: 1}); !errors.Is(err, models.ErrQueueFull) {
		t.Fatalf("SetColor err = %v", err)
	}
	if err := svc.ResetOverheat(context.Background()); !errors.Is(err, models.ErrStillUnsafe) {
		t.Fatalf("ResetOverheat err = %v", err)
	}
	if loop.resetCalls != 1 {
		t.Fatalf("reset calls = %d", loop.resetCalls)
	}
}

func TestControlService_SetColor_Invalid(t *testing.T) {
	loop := &fakeLoop{}
	svc := NewControlService(loop, nil)

	err := svc.SetColor(models.RGBWW{R: 256})
	var ve *models.ValidationError
	if !errors.As(err, &ve) || ve.Field != "color.r" {
		t.Fatalf("expected color.r validation error, got %v", err)
	}
}
