package service

import (
	"context"

	"terrarium_control/internal/control"
	"terrarium_control/internal/logger"
	"terrarium_control/internal/models"
)

// Loop is the operator surface of the control loop.
type Loop interface {
	Status() control.Status
	SetManualOverride(color models.RGBWW) error
	SetManualMode() error
	SetNaturalMode(seasonWeight float64) error
	SetPower(on bool) error
	ResetOverheat(ctx context.Context) error
}

// ControlService forwards operator requests to the loop. Requests are validated synchronously
// and take effect on the next tick.
type ControlService struct {
	loop Loop
	log  *logger.Logger
}

func NewControlService(loop Loop, log *logger.Logger) *ControlService {
	return &ControlService{loop: loop, log: log}
}

func (s *ControlService) Status() control.Status {
	return s.loop.Status()
}

func (s *ControlService) SetPower(on bool) error {
	if err := s.loop.SetPower(on); err != nil {
		return err
	}
	s.debugw("led_power_requested", "power", on)
	return nil
}

func (s *ControlService) SetColor(c models.RGBWW) error {
	if err := s.loop.SetManualOverride(c); err != nil {
		return err
	}
	s.debugw("led_color_requested", "color", c.String())
	return nil
}

// SetNatural selects the LED mode. Leaving natural mode holds the manual colour the loop has
// stored when the request is applied. seasonWeight is validated either way and applied only in
// natural mode.
func (s *ControlService) SetNatural(useNatural bool, seasonWeight float64) error {
	if err := models.ValidateSeasonWeight(seasonWeight); err != nil {
		return err
	}
	if useNatural {
		if err := s.loop.SetNaturalMode(seasonWeight); err != nil {
			return err
		}
	} else if err := s.loop.SetManualMode(); err != nil {
		return err
	}
	s.debugw("led_mode_requested", "use_natural", useNatural, "season_weight", seasonWeight)
	return nil
}

func (s *ControlService) ResetOverheat(ctx context.Context) error {
	return s.loop.ResetOverheat(ctx)
}

func (s *ControlService) debugw(msg string, kv ...any) {
	if s.log != nil {
		s.log.Debugw(msg, kv...)
	}
}
