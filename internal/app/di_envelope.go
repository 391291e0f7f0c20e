package app

import (
	"fmt"

	"github.com/allisson/envelope/internal/clock"
	envelopeHTTP "github.com/allisson/envelope/internal/envelope/http"
	envelopeRepository "github.com/allisson/envelope/internal/envelope/repository"
	"github.com/allisson/envelope/internal/envelope/service"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
)

// KeyRingRepository returns the key ring repository for the configured database driver.
func (c *Container) KeyRingRepository() (envelopeUseCase.KeyRingRepository, error) {
	var err error
	c.keyRingRepositoryInit.Do(func() {
		c.keyRingRepository, err = c.initKeyRingRepository()
		if err != nil {
			c.initErrors["keyRingRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyRingRepository"]; exists {
		return nil, storedErr
	}
	return c.keyRingRepository, nil
}

// EncryptionProcessor returns the process wide processor holding the loaded key rings.
func (c *Container) EncryptionProcessor() *service.EncryptionProcessor {
	c.processorInit.Do(func() {
		c.processor = service.NewEncryptionProcessor(service.NewAESCBCFactory(), clock.Real{})
	})
	return c.processor
}

// KeyRingUseCase returns the key ring use case.
func (c *Container) KeyRingUseCase() (envelopeUseCase.KeyRingUseCase, error) {
	var err error
	c.keyRingUseCaseInit.Do(func() {
		c.keyRingUseCase, err = c.initKeyRingUseCase()
		if err != nil {
			c.initErrors["keyRingUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyRingUseCase"]; exists {
		return nil, storedErr
	}
	return c.keyRingUseCase, nil
}

// EnvelopeUseCase returns the envelope encryption use case.
func (c *Container) EnvelopeUseCase() (envelopeUseCase.EnvelopeUseCase, error) {
	var err error
	c.envelopeUseCaseInit.Do(func() {
		c.envelopeUseCase, err = c.initEnvelopeUseCase()
		if err != nil {
			c.initErrors["envelopeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeUseCase"]; exists {
		return nil, storedErr
	}
	return c.envelopeUseCase, nil
}

// KeyRingHandler returns the HTTP handler for key ring management.
func (c *Container) KeyRingHandler() (*envelopeHTTP.KeyRingHandler, error) {
	var err error
	c.keyRingHandlerInit.Do(func() {
		var useCase envelopeUseCase.KeyRingUseCase
		useCase, err = c.KeyRingUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get key ring use case for key ring handler: %w", err)
			c.initErrors["keyRingHandler"] = err
			return
		}
		c.keyRingHandler = envelopeHTTP.NewKeyRingHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyRingHandler"]; exists {
		return nil, storedErr
	}
	return c.keyRingHandler, nil
}

// EnvelopeHandler returns the HTTP handler for envelope encryption.
func (c *Container) EnvelopeHandler() (*envelopeHTTP.EnvelopeHandler, error) {
	var err error
	c.envelopeHandlerInit.Do(func() {
		var useCase envelopeUseCase.EnvelopeUseCase
		useCase, err = c.EnvelopeUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get envelope use case for envelope handler: %w", err)
			c.initErrors["envelopeHandler"] = err
			return
		}
		c.envelopeHandler = envelopeHTTP.NewEnvelopeHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeHandler"]; exists {
		return nil, storedErr
	}
	return c.envelopeHandler, nil
}

func (c *Container) initKeyRingRepository() (envelopeUseCase.KeyRingRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for key ring repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return envelopeRepository.NewMySQLKeyRingRepository(db), nil
	case "postgres":
		return envelopeRepository.NewPostgreSQLKeyRingRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initKeyRingUseCase() (envelopeUseCase.KeyRingUseCase, error) {
	ownerID, err := c.config.OwnerID()
	if err != nil {
		return nil, err
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for key ring use case: %w", err)
	}

	repo, err := c.KeyRingRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get key ring repository for key ring use case: %w", err)
	}

	baseUseCase := envelopeUseCase.NewKeyRingUseCase(
		txManager,
		repo,
		c.EncryptionProcessor(),
		ownerID,
		c.config.KeyDefaultTTL,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for key ring use case: %w", err)
		}
		return envelopeUseCase.NewKeyRingUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initEnvelopeUseCase() (envelopeUseCase.EnvelopeUseCase, error) {
	repo, err := c.KeyRingRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get key ring repository for envelope use case: %w", err)
	}

	baseUseCase := envelopeUseCase.NewEnvelopeUseCase(repo, c.EncryptionProcessor())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for envelope use case: %w", err)
		}
		return envelopeUseCase.NewEnvelopeUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
