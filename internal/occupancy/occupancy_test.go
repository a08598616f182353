package occupancy

import (
	"testing"

	"webserver/internal/model"
)

type recordedChange struct {
	zoneID    string
	prevCount int
	newCount  int
}

type fakeListener struct {
	changes []recordedChange
}

func (f *fakeListener) OnOccupancyChange(zone *model.Zone, prevCount, newCount int, blobs []model.Blob) {
	f.changes = append(f.changes, recordedChange{zoneID: zone.ID, prevCount: prevCount, newCount: newCount})
}

func testZone() *model.Zone {
	return &model.Zone{ID: "z1", Name: "lobby", CameraID: "cam1", AlarmThreshold: 2}
}

func TestUpdate_NoChangeDoesNotNotify(t *testing.T) {
	tr := New()
	l := &fakeListener{}
	tr.AddListener(l)

	tr.Update(testZone(), nil)
	tr.Update(testZone(), nil)

	if len(l.changes) != 0 {
		t.Errorf("expected no notifications for 0->0, got %v", l.changes)
	}
}

func TestUpdate_NotifiesOnCountChange(t *testing.T) {
	tr := New()
	l := &fakeListener{}
	tr.AddListener(l)

	zone := testZone()
	blobs := []model.Blob{{ID: 1, Area: 100}}
	tr.Update(zone, blobs)

	if len(l.changes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(l.changes))
	}
	if l.changes[0].prevCount != 0 || l.changes[0].newCount != 1 {
		t.Errorf("expected 0->1, got %+v", l.changes[0])
	}

	tr.Update(zone, nil)
	if len(l.changes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(l.changes))
	}
	if l.changes[1].prevCount != 1 || l.changes[1].newCount != 0 {
		t.Errorf("expected 1->0, got %+v", l.changes[1])
	}
}

func TestUpdate_AlarmSetAtThreshold(t *testing.T) {
	tr := New()
	zone := testZone() // alarm threshold 2

	tr.Update(zone, []model.Blob{{ID: 1}})
	entry, ok := tr.Get(zone.ID)
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if entry.Alarm {
		t.Error("expected no alarm below threshold")
	}

	tr.Update(zone, []model.Blob{{ID: 1}, {ID: 2}})
	entry, _ = tr.Get(zone.ID)
	if !entry.Alarm {
		t.Error("expected alarm at threshold")
	}
}

func TestRemove_DropsEntry(t *testing.T) {
	tr := New()
	zone := testZone()
	tr.Update(zone, []model.Blob{{ID: 1}})

	tr.Remove(zone.ID)
	if _, ok := tr.Get(zone.ID); ok {
		t.Error("expected entry to be removed")
	}
}

func TestAll_ReturnsSnapshot(t *testing.T) {
	tr := New()
	tr.Update(&model.Zone{ID: "a", AlarmThreshold: 1}, nil)
	tr.Update(&model.Zone{ID: "b", AlarmThreshold: 1}, []model.Blob{{ID: 1}})

	all := tr.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
}

type fakePublisher struct {
	published []model.OccupancyEntry
}

func (f *fakePublisher) PublishOccupancy(entry model.OccupancyEntry) {
	f.published = append(f.published, entry)
}

func TestUpdate_PublishesEveryTickEvenWithoutCountChange(t *testing.T) {
	tr := New()
	pub := &fakePublisher{}
	tr.SetPublisher(pub)

	zone := testZone()
	tr.Update(zone, nil)
	tr.Update(zone, nil)

	if len(pub.published) != 2 {
		t.Fatalf("expected an OccupancyUpdate published on every tick, got %d", len(pub.published))
	}
	if pub.published[0].ZoneID != zone.ID {
		t.Errorf("expected published entry for zone %s, got %+v", zone.ID, pub.published[0])
	}
}
