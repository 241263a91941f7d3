package services

import (
	"log/slog"

	"github.com/dicomnet-go/dicomcore/dimse"
	"github.com/dicomnet-go/dicomcore/sopclass"
)

// NewDefaultRegistry builds a dimse.Registry pre-populated with the stub
// handlers in this package: C-ECHO (fully functional), C-STORE, C-FIND,
// C-MOVE and C-GET (stub responses - see each service's doc comment).
// Callers register their own handlers over these SOP classes, or
// additional ones, via the returned registry's Register/RegisterStreaming
// before handing it to server.New.
func NewDefaultRegistry(logger *slog.Logger) *dimse.Registry {
	registry := dimse.NewRegistry()

	echo := NewEchoService(logger)
	registry.Register(dimse.VerificationSOPClassUID, echo.Handle)

	store := NewStoreService(logger)
	for _, sopClassUID := range CommonStorageSOPClasses {
		registry.Register(sopClassUID, store.Handle)
	}

	find := NewFindService(logger)
	for _, sopClassUID := range CommonFindSOPClasses {
		registry.RegisterStreaming(sopClassUID, find.Handle)
	}

	move := NewMoveService(logger)
	for _, sopClassUID := range CommonMoveSOPClasses {
		registry.RegisterStreaming(sopClassUID, move.Handle)
	}

	get := NewGetService(logger)
	for _, sopClassUID := range CommonGetSOPClasses {
		registry.RegisterStreaming(sopClassUID, get.Handle)
	}

	return registry
}

// CommonStorageSOPClasses are the Storage SOP classes the stub
// StoreService answers for by default - a representative subset of
// sopclass's registry rather than every Storage SOP class it knows about.
var CommonStorageSOPClasses = []string{
	sopclass.CTImageStorage,
	sopclass.MRImageStorage,
	sopclass.SecondaryCaptureImageStorage,
	sopclass.DigitalXRayImageStorageForPresentation,
}

// CommonFindSOPClasses are the Query/Retrieve C-FIND SOP classes the stub
// FindService answers for by default.
var CommonFindSOPClasses = []string{
	sopclass.PatientRootQueryRetrieveInformationModelFind,
	sopclass.StudyRootQueryRetrieveInformationModelFind,
}

// CommonMoveSOPClasses are the Query/Retrieve C-MOVE SOP classes the stub
// MoveService answers for by default.
var CommonMoveSOPClasses = []string{
	sopclass.PatientRootQueryRetrieveInformationModelMove,
	sopclass.StudyRootQueryRetrieveInformationModelMove,
}

// CommonGetSOPClasses are the Query/Retrieve C-GET SOP classes the stub
// GetService answers for by default.
var CommonGetSOPClasses = []string{
	sopclass.PatientRootQueryRetrieveInformationModelGet,
	sopclass.StudyRootQueryRetrieveInformationModelGet,
}
